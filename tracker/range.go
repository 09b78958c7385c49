package tracker

import (
	"fmt"
	"strconv"
	"strings"
)

// Range selects the lines of a file the user is asking about.
// End == 0 means "to the end of the file".
type Range struct {
	Start int
	End   int
}

// String renders the range as a path suffix: ":start-end", or ":start"
// when the range is open-ended.
func (r Range) String() string {
	if r.End == 0 {
		return fmt.Sprintf(":%d", r.Start)
	}
	return fmt.Sprintf(":%d-%d", r.Start, r.End)
}

// SplitArg splits a "path[:start-end]" file argument into the clean path
// and the optional range. Unparsable range components fall back to 1 for
// the start and 0 (open-ended) for the end.
func SplitArg(arg string) (string, *Range) {
	path, spec, ok := strings.Cut(arg, ":")
	if !ok {
		return arg, nil
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return path, nil
	}

	start, err := strconv.Atoi(startStr)
	if err != nil {
		start = 1
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		end = 0
	}
	return path, &Range{Start: start, End: end}
}
