package ffmpeg

import "strings"

const (
	DetectFilter    = "vidstabdetect"
	TransformFilter = "vidstabtransform"
)

// Pass names one of the per-file ffmpeg invocations.
type Pass string

const (
	PassAnalyze   Pass = "analyze"
	PassTransform Pass = "transform"
	PassCompare   Pass = "compare"
)

// AnalyzeArgs runs motion detection on input and writes transform data to trf.
// No video is produced.
//
//	<tool> -i <input> -vf vidstabdetect=result=<trf> -f null -
func AnalyzeArgs(tool, input, trf string) []string {
	return []string{
		tool,
		"-i", input,
		"-vf", DetectFilter + "=result=" + EscapeFilterValue(trf),
		"-f", "null", "-",
	}
}

// TransformArgs renders the stabilized video from input using trf.
// extra is the configured passthrough ("" or "=key=value..."); everything
// after its leading '=' is appended verbatim as further filter options.
//
//	<tool> [-y] -i <input> -vf vidstabtransform=input=<trf>[:<extra>] <output>
func TransformArgs(tool, input, trf, extra, output string, overwrite bool) []string {
	filter := TransformFilter + "=input=" + EscapeFilterValue(trf)
	if opts := strings.TrimPrefix(extra, "="); opts != "" {
		filter += ":" + opts
	}

	args := []string{tool}
	if overwrite {
		args = append(args, "-y")
	}
	return append(args, "-i", input, "-vf", filter, output)
}

// CompareArgs stacks the original and stabilized videos side by side.
//
//	<tool> [-y] -i <input> -i <stabilized> -filter_complex hstack <comparison>
func CompareArgs(tool, input, stabilized, comparison string, overwrite bool) []string {
	args := []string{tool}
	if overwrite {
		args = append(args, "-y")
	}
	return append(args,
		"-i", input,
		"-i", stabilized,
		"-filter_complex", "hstack",
		comparison,
	)
}

// EscapeFilterValue escapes v for use as a filter option value inside a
// -vf argument. Both the option-level and the filtergraph-level escaping
// are applied, so paths containing ':' or '\' survive intact.
func EscapeFilterValue(v string) string {
	return escapeChars(escapeChars(v, `\':`), `\'[],;`)
}

func escapeChars(s, special string) string {
	if !strings.ContainsAny(s, special) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
