package storage

import "testing"

func TestKindFromPath(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"clip.mp4", KindVideo},
		{"movie.MKV", KindVideo},
		{"short.webm", KindVideo},
		{"/tmp/staged/upload.mov", KindVideo},
		{"avatar.png", KindImage},
		{"cover.jpg", KindImage},
		{"noextension", KindImage},
	}

	for _, tc := range cases {
		if got := KindFromPath(tc.path); got != tc.want {
			t.Errorf("KindFromPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
