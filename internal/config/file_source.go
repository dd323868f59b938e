package config

import "os"

// fileSource reads a single YAML file, mirroring the donor's
// contrib/config/provider/file source.
type fileSource struct {
	path string
}

// NewFileSource builds a Source reading path. A missing file is reported
// as a load error that Config.Scan treats as "no overrides".
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (f *fileSource) Load() ([]*KeyValue, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return []*KeyValue{{Key: f.path, Value: data, Format: "yaml"}}, nil
}
