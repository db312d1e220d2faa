package youtube

import "testing"

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"bare id with spaces", "  dQw4w9WgXcQ ", "dQw4w9WgXcQ", true},
		{"standard watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch URL params before v", "https://www.youtube.com/watch?list=PLxyz&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short URL with params", "https://youtu.be/dQw4w9WgXcQ?t=60", "dQw4w9WgXcQ", true},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", "dQw4w9WgXcQ", true},
		{"nocookie embed URL", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"v URL", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"too short", "dQw4w9", "", false},
		{"bad characters", "dQw4w9WgX!Q", "", false},
		{"other site", "https://vimeo.com/123456789", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVideoID(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseVideoID(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
