package archiver

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// DateLayout is the layout of Stamp.Date, e.g., 2024_01_05.
	DateLayout = "2006_01_02"
	// TimeLayout is the layout of Stamp.Time, e.g., 10_30_00.
	TimeLayout = "15_04_05"
	// runDirPrefix is prepended to the date for the run directory name.
	runDirPrefix = "runs_"
	// templateMarker is removed from template stems when deriving names.
	templateMarker = "template"
)

// Stamp holds the formatted date and time of a single clock reading.
type Stamp struct {
	Date string
	Time string
}

// NewStamp formats the given time using DateLayout and TimeLayout.
func NewStamp(t time.Time) Stamp {
	return Stamp{
		Date: t.Format(DateLayout),
		Time: t.Format(TimeLayout),
	}
}

// String returns the date and time joined with an underscore.
func (stamp Stamp) String() string {
	return stamp.Date + "_" + stamp.Time
}

// RunDirName returns the name of the directory that groups all copies made on
// the stamp's date.
func RunDirName(stamp Stamp) string {
	return runDirPrefix + stamp.Date
}

// SplitName splits the given base name into stem and extension. The extension
// starts at the last dot. A leading dot does not start an extension, so
// ".bashrc" has no extension, and neither does a name ending with a dot.
func SplitName(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}

// DeriveName derives the file name for an auto-named archive copy of the
// given template file. All occurrences of "template" are removed from the stem
// and the stamp is appended, separated by an underscore, followed by the
// original extension:
//
//	run_skywalker_template.ipynb -> run_skywalker_2024_01_05_10_30_00.ipynb
//	foo.txt                      -> foo_2024_01_05_10_30_00.txt
//
// If nothing remains of the stem, the name starts with the stamp.
func DeriveName(filename string, stamp Stamp) string {
	stem, ext := SplitName(filepath.Base(filename))
	stem = strings.ReplaceAll(stem, templateMarker, "")
	if stem != "" && !strings.HasSuffix(stem, "_") {
		stem += "_"
	}
	return stem + stamp.String() + ext
}
