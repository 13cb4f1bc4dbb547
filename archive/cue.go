package archive

import (
	"path/filepath"
	"strings"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
	"github.com/vchimishuk/chub/cue"
)

// LoadCUE reads a cue sheet and exposes each track file it references as an
// entry. Only sheets with one track per FILE are supported, which covers the
// usual split bin/cue layout.
func LoadCUE(fsys vfs.FileSystem, path string) (*Package, error) {
	const op = "load cue sheet"

	f, err := fsys.Open(path)
	if err != nil {
		return nil, openError(op, path, err)
	}
	defer f.Close()

	sheet, err := cue.Parse(f)
	if err != nil {
		return nil, result.New(result.FileType, op, path, err)
	}
	if len(sheet.Files) == 0 {
		return nil, result.Errorf(result.FileType, op, path, "no FILE entries")
	}

	pkg := New(path, len(sheet.Files), "")
	for i, file := range sheet.Files {
		if len(file.Tracks) != 1 {
			return nil, result.Errorf(result.Unsupported, op, path, "%q holds %d tracks", file.Name, len(file.Tracks))
		}

		data := filepath.Join(filepath.Dir(path), filepath.Clean(strings.ReplaceAll(file.Name, "\\", string(filepath.Separator))))
		size, err := vfs.Size(fsys, data)
		if err != nil {
			return nil, openError(op, data, err)
		}

		pkg.Table[i] = Index{
			Name:     filepath.Base(data),
			Size:     size,
			DataPath: data,
		}
	}

	return pkg, nil
}

// IsDataTrack reports whether the track stored in entry i of a package
// loaded by LoadCUE holds Mode 1 data rather than audio.
func IsDataTrack(fsys vfs.FileSystem, pkg *Package, i int) (bool, error) {
	if i < 0 || i >= pkg.Len() {
		return false, result.Errorf(result.FileNotFound, "inspect cue track", pkg.pathOrEmpty(), "index %d out of range", i)
	}

	f, err := fsys.Open(pkg.Path)
	if err != nil {
		return false, openError("inspect cue track", pkg.Path, err)
	}
	defer f.Close()

	sheet, err := cue.Parse(f)
	if err != nil {
		return false, result.New(result.FileType, "inspect cue track", pkg.Path, err)
	}
	if i >= len(sheet.Files) || len(sheet.Files[i].Tracks) == 0 {
		return false, result.Errorf(result.FileType, "inspect cue track", pkg.Path, "sheet changed since load")
	}

	switch sheet.Files[i].Tracks[0].DataType {
	case cue.DataTypeMode1_2048, cue.DataTypeMode1_2352:
		return true, nil
	}
	return false, nil
}
