package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"pixy/internal/services"
)

// Kind selects the video encoder used for the final transcode.
type Kind int

const (
	H264NVENC Kind = iota
	HEVCNVENC
	H264AMF
	HEVCAMF
	H264QSV
	HEVCQSV
	H264VAAPI
	HEVCVAAPI
	Libx264
	Libx265
)

var kindNames = []struct {
	kind  Kind
	token string
	codec string
}{
	{H264NVENC, "h264-nvenc", "h264_nvenc"},
	{HEVCNVENC, "hevc-nvenc", "hevc_nvenc"},
	{H264AMF, "h264-amf", "h264_amf"},
	{HEVCAMF, "hevc-amf", "hevc_amf"},
	{H264QSV, "h264-qsv", "h264_qsv"},
	{HEVCQSV, "hevc-qsv", "hevc_qsv"},
	{H264VAAPI, "h264-vaapi", "h264_vaapi"},
	{HEVCVAAPI, "hevc-vaapi", "hevc_vaapi"},
	{Libx264, "libx264", "libx264"},
	{Libx265, "libx265", "libx265"},
}

// Kinds lists every supported encoder in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for _, entry := range kindNames {
		out = append(out, entry.kind)
	}
	return out
}

// Codec returns the ffmpeg encoder name.
func (k Kind) Codec() string {
	for _, entry := range kindNames {
		if entry.kind == k {
			return entry.codec
		}
	}
	return ""
}

// String returns the CLI token for the kind.
func (k Kind) String() string {
	for _, entry := range kindNames {
		if entry.kind == k {
			return entry.token
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts a CLI token ("hevc-nvenc") or an ffmpeg encoder name
// ("hevc_nvenc"), case-insensitively.
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, entry := range kindNames {
		if normalized == entry.token || normalized == entry.codec {
			return entry.kind, nil
		}
	}
	return 0, services.Wrap(services.ErrInvalidArgument, "", "parse encoder", fmt.Sprintf("unknown encoder %q", value), nil)
}

// Options describes the final encode. Optional fields are omitted from the
// flag sequence when empty or nil.
type Options struct {
	Encoder   Kind
	Preset    string
	Tune      string
	Quality   *uint8
	PixFmt    string
	Container string
}

// Args maps the options to ffmpeg flags in the fixed order
// codec, preset, tune, quality (-crf), pixel format. No compatibility checks
// are made; ffmpeg rejects invalid combinations itself.
func (o Options) Args() []string {
	args := []string{"-c:v", o.Encoder.Codec()}
	if o.Preset != "" {
		args = append(args, "-preset", o.Preset)
	}
	if o.Tune != "" {
		args = append(args, "-tune", o.Tune)
	}
	if o.Quality != nil {
		args = append(args, "-crf", strconv.Itoa(int(*o.Quality)))
	}
	if o.PixFmt != "" {
		args = append(args, "-pix_fmt", o.PixFmt)
	}
	return args
}
