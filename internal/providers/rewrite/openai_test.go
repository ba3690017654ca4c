package rewrite

import (
	"reflect"
	"testing"
)

func TestSplitNonEmptyLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "plain lines",
			in:   "first bullet\nsecond bullet",
			want: []string{"first bullet", "second bullet"},
		},
		{
			name: "blank lines and whitespace dropped",
			in:   "\n  first  \n\n second\n",
			want: []string{"first", "second"},
		},
		{
			name: "leading list dashes stripped",
			in:   "- first\n- second",
			want: []string{"first", "second"},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := splitNonEmptyLines(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("splitNonEmptyLines(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
