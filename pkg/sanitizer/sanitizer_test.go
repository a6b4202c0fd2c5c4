package sanitizer

import "testing"

func TestRoomName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "spaces and case",
			input: "Room A",
			want:  "room_a",
		},
		{
			name:  "already normalized",
			input: "room_a",
			want:  "room_a",
		},
		{
			name:  "every space counts",
			input: "Weekly  Sync ",
			want:  "weekly__sync_",
		},
		{
			name:  "non ascii letters are lowercased",
			input: "Café Équipe",
			want:  "café_équipe",
		},
		{
			name:  "punctuation preserved",
			input: "Team-1.Daily",
			want:  "team-1.daily",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoomName(tt.input)
			if got != tt.want {
				t.Errorf("RoomName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := RoomName(got); again != got {
				t.Errorf("RoomName is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"https://Meet.Example.org/", "https://meet.example.org"},
		{"meet.example.org", "https://meet.example.org"},
		{"http://meet.example.org/jitsi//?x=1#top", "http://meet.example.org/jitsi"},
		{"https://", ""},
	}

	for _, tt := range tests {
		if got := BaseURL(tt.input); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
