package transcoder

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// VideoInfo contains information about a video file.
type VideoInfo struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Codec     string    `json:"codec"`
	FrameRate FrameRate `json:"-"`
	Duration  float64   `json:"duration"`
	HasAudio  bool      `json:"hasAudio"`
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// parseProbeOutput reads the first video stream and notes whether any audio
// stream exists. r_frame_rate is preferred; avg_frame_rate is the fallback
// when ffprobe reports 0/0.
func parseProbeOutput(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	foundVideo := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = s.Width
			info.Height = s.Height
			info.Codec = s.CodecName

			rate, err := ParseFrameRate(s.RFrameRate)
			if err != nil {
				rate, err = ParseFrameRate(s.AvgFrameRate)
			}
			if err != nil {
				return nil, fmt.Errorf("no usable frame rate (r=%q avg=%q)", s.RFrameRate, s.AvgFrameRate)
			}
			info.FrameRate = rate
		case "audio":
			info.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream")
	}

	if out.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	}

	return info, nil
}
