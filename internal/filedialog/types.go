// Package filedialog opens the file and folder pickers used by the command
// options, restricting each to the file types that option accepts.
package filedialog

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HandleType selects which dialog is shown and what it returns.
type HandleType string

const (
	Open          HandleType = "open"
	Save          HandleType = "save"
	Filename      HandleType = "filename"
	FilenameMulti HandleType = "filename_multi"
	SaveFilename  HandleType = "save_filename"
	Context       HandleType = "context"
	Dir           HandleType = "dir"
	SaveDir       HandleType = "savedir"
	Nothing       HandleType = "nothing"
)

// FileType names a family of accepted extensions.
type FileType string

const (
	Default       FileType = "default"
	Alignments    FileType = "alignments"
	ConfigProject FileType = "config_project"
	ConfigTask    FileType = "config_task"
	ConfigAll     FileType = "config_all"
	CSV           FileType = "csv"
	Image         FileType = "image"
	INI           FileType = "ini"
	JSON          FileType = "json"
	Model         FileType = "model"
	State         FileType = "state"
	Log           FileType = "log"
	Video         FileType = "video"
)

var (
	ErrUnknownFileType   = errors.New("filedialog: unknown file type")
	ErrUnknownHandleType = errors.New("filedialog: unknown handle type")
)

// Filter is one named entry in a dialog's file type list.
type Filter struct {
	Name     string
	Patterns []string
}

const allFilesName = "All files"

var allFiles = Filter{Name: allFilesName, Patterns: []string{"*.*"}}

func baseFileTypes() map[FileType][]Filter {
	return map[FileType][]Filter{
		Default:       {allFiles},
		Alignments:    {{"Faceswap Alignments", []string{"*.fsa"}}, allFiles},
		ConfigProject: {{"Faceswap Project files", []string{"*.fsw"}}, allFiles},
		ConfigTask:    {{"Faceswap Task files", []string{"*.fst"}}, allFiles},
		ConfigAll:     {{"Faceswap Project and Task files", []string{"*.fst", "*.fsw"}}, allFiles},
		CSV:           {{"Comma separated values", []string{"*.csv"}}, allFiles},
		Image: {
			{"Bitmap", []string{"*.bmp"}},
			{"JPG", []string{"*.jpeg", "*.jpg"}},
			{"PNG", []string{"*.png"}},
			{"TIFF", []string{"*.tif", "*.tiff"}},
			allFiles,
		},
		INI:   {{"Faceswap config files", []string{"*.ini"}}, allFiles},
		JSON:  {{"JSON file", []string{"*.json"}}, allFiles},
		Model: {{"Keras model files", []string{"*.h5"}}, allFiles},
		State: {{"State files", []string{"*.json"}}, allFiles},
		Log:   {{"Log files", []string{"*.log"}}, allFiles},
		Video: {
			{"Audio Video Interleave", []string{"*.avi"}},
			{"Flash Video", []string{"*.flv"}},
			{"Matroska", []string{"*.mkv"}},
			{"MOV", []string{"*.mov"}},
			{"MP4", []string{"*.mp4"}},
			{"MPEG", []string{"*.mpeg", "*.mpg", "*.ts", "*.vob"}},
			{"WebM", []string{"*.webm"}},
			{"Windows Media Video", []string{"*.wmv"}},
			allFiles,
		},
	}
}

// FileTypes returns the filter table for every file type on the given
// platform. Linux pickers are case sensitive, so upper case patterns are
// added there. Types with several entries get a leading combined entry.
func FileTypes(goos string) map[FileType][]Filter {
	table := baseFileTypes()
	for key, filters := range table {
		if goos == "linux" {
			for i, f := range filters {
				if f.Name == allFilesName {
					continue
				}
				patterns := append([]string{}, f.Patterns...)
				for _, p := range f.Patterns {
					patterns = append(patterns, strings.ToUpper(p))
				}
				filters[i] = Filter{Name: f.Name, Patterns: patterns}
			}
		}
		if len(filters) > 2 {
			combined := Filter{Name: cases.Title(language.English).String(string(key)) + " Files"}
			for _, f := range filters {
				if f.Name != allFilesName {
					combined.Patterns = append(combined.Patterns, f.Patterns...)
				}
			}
			filters = append([]Filter{combined}, filters...)
		}
		table[key] = filters
	}
	return table
}

// Filters returns the filter list for ft on the running platform.
func Filters(ft FileType) ([]Filter, error) {
	filters, ok := FileTypes(runtime.GOOS)[ft]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFileType, ft)
	}
	return filters, nil
}

// DefaultExtension is the extension appended to a chosen name that has none.
// Generally the first pattern offered, except where that is a poor choice.
func DefaultExtension(ft FileType) (string, error) {
	switch ft {
	case Default:
		return "", nil
	case Video:
		return ".mp4", nil
	case Image:
		return ".png", nil
	}
	filters, err := Filters(ft)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(filters[0].Patterns[0], "*"), nil
}

// Extensions lists the distinct extensions, with leading dot, a dialog for
// ft should accept. An empty result means any file.
func Extensions(ft FileType) ([]string, error) {
	filters, err := Filters(ft)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var exts []string
	for _, f := range filters {
		if f.Name == allFilesName {
			continue
		}
		for _, p := range f.Patterns {
			ext := strings.TrimPrefix(p, "*")
			if !seen[ext] {
				seen[ext] = true
				exts = append(exts, ext)
			}
		}
	}
	return exts, nil
}

type contextEntry struct {
	byVariable map[string]map[string]HandleType
	byAction   map[string]HandleType
}

var contexts = map[string]contextEntry{
	"effmpeg": {
		byVariable: map[string]map[string]HandleType{
			"input": {
				"extract":   Filename,
				"gen-vid":   Dir,
				"get-fps":   Filename,
				"get-info":  Filename,
				"mux-audio": Filename,
				"rescale":   Filename,
				"rotate":    Filename,
				"slice":     Filename,
			},
			"output": {
				"extract":   Dir,
				"gen-vid":   SaveFilename,
				"get-fps":   Nothing,
				"get-info":  Nothing,
				"mux-audio": SaveFilename,
				"rescale":   SaveFilename,
				"rotate":    SaveFilename,
				"slice":     SaveFilename,
			},
		},
	},
}

// ResolveContext picks the handle type for a context dialog from the
// command, the action selected in it and the option being browsed for.
func ResolveContext(command, action, variable string) (HandleType, error) {
	entry, ok := contexts[command]
	if !ok {
		return "", fmt.Errorf("%w: no context for command %q", ErrUnknownHandleType, command)
	}
	if actions, ok := entry.byVariable[variable]; ok {
		if ht, ok := actions[action]; ok {
			return ht, nil
		}
	} else if ht, ok := entry.byAction[action]; ok {
		return ht, nil
	}
	return "", fmt.Errorf("%w: no context for %s/%s/%s", ErrUnknownHandleType, command, variable, action)
}

func (h HandleType) valid() bool {
	switch h {
	case Open, Save, Filename, FilenameMulti, SaveFilename, Context, Dir, SaveDir, Nothing:
		return true
	}
	return false
}

// usesFilter reports whether the dialog for h is restricted by file type.
func (h HandleType) usesFilter() bool {
	switch h {
	case Open, Save, Filename, FilenameMulti, SaveFilename:
		return true
	}
	return false
}
