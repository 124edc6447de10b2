package cursor

import "testing"

func TestNew(t *testing.T) {
	c := New(12, 7)

	if c.Current.Album != 0 || c.Current.Song != 0 {
		t.Errorf("Current = %+v, want zero position", c.Current)
	}
	if c.Total.Albums != 12 {
		t.Errorf("Total.Albums = %d, want 12", c.Total.Albums)
	}
	if c.Total.Songs != 7 {
		t.Errorf("Total.Songs = %d, want 7", c.Total.Songs)
	}
}

func TestCursor_Clamp(t *testing.T) {
	tests := []struct {
		name     string
		song     int
		maxIndex int
		want     int
	}{
		{name: "unknown clamped to last song", song: Unknown, maxIndex: 4, want: 4},
		{name: "inside range untouched", song: 2, maxIndex: 4, want: 2},
		{name: "negative raised to zero", song: -3, maxIndex: 4, want: 0},
		{name: "empty album", song: Unknown, maxIndex: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cursor{Current: Position{Song: tt.song}}
			c.Clamp(tt.maxIndex)
			if c.Current.Song != tt.want {
				t.Errorf("Clamp(%d) song = %d, want %d", tt.maxIndex, c.Current.Song, tt.want)
			}
		})
	}
}

func TestCursor_Edges(t *testing.T) {
	tests := []struct {
		name      string
		cursor    Cursor
		wantStart bool
		wantEnd   bool
	}{
		{
			name:      "fresh cursor over multiple albums",
			cursor:    New(3, 5),
			wantStart: true,
			wantEnd:   false,
		},
		{
			name: "last song of last album",
			cursor: Cursor{
				Current: Position{Album: 2, Song: 4},
				Total:   Totals{Albums: 3, Songs: 5},
			},
			wantStart: false,
			wantEnd:   true,
		},
		{
			name:      "single song catalog",
			cursor:    New(1, 1),
			wantStart: true,
			wantEnd:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cursor.AtStart(); got != tt.wantStart {
				t.Errorf("AtStart() = %v, want %v", got, tt.wantStart)
			}
			if got := tt.cursor.AtEnd(); got != tt.wantEnd {
				t.Errorf("AtEnd() = %v, want %v", got, tt.wantEnd)
			}
		})
	}
}
