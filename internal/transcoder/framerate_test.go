package transcoder

import "testing"

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in      string
		want    FrameRate
		wantErr bool
	}{
		{"30000/1001", FrameRate{30000, 1001}, false},
		{"25/1", FrameRate{25, 1}, false},
		{"50/2", FrameRate{25, 1}, false},
		{"30", FrameRate{30, 1}, false},
		{" 24 ", FrameRate{24, 1}, false},
		{"29.97", FrameRate{30000, 1001}, false},
		{"23.976", FrameRate{24000, 1001}, false},
		{"59.94", FrameRate{60000, 1001}, false},
		{"12.5", FrameRate{25, 2}, false},
		{"0/0", FrameRate{}, true},
		{"30/0", FrameRate{}, true},
		{"0", FrameRate{}, true},
		{"-5", FrameRate{}, true},
		{"", FrameRate{}, true},
		{"abc", FrameRate{}, true},
		{"30/x", FrameRate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrameRate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrameRate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFrameRate(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFrameRateString(t *testing.T) {
	tests := []struct {
		rate FrameRate
		want string
	}{
		{FrameRate{30, 1}, "30"},
		{FrameRate{30000, 1001}, "30000/1001"},
		{FrameRate{25, 2}, "25/2"},
	}
	for _, tt := range tests {
		if got := tt.rate.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestFrameRateFloat(t *testing.T) {
	if got := (FrameRate{30000, 1001}).Float(); got < 29.97 || got > 29.971 {
		t.Errorf("Float() = %v, want ~29.97", got)
	}
	if got := (FrameRate{}).Float(); got != 0 {
		t.Errorf("zero rate Float() = %v, want 0", got)
	}
}
