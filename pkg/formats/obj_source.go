package formats

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ReadOBJSource reads the whole file at path into a new buffer.
// It makes a single attempt and never returns a partially filled buffer.
func ReadOBJSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ioFailure(ErrOBJNotFound, path, err)
		}
		return nil, ioFailure(ErrOBJRead, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ioFailure(ErrOBJRead, path, err)
	}
	if info.IsDir() {
		return nil, ioFailure(ErrOBJRead, path, errors.New("is a directory"))
	}
	if info.Size() == 0 {
		return nil, ioFailure(ErrOBJEmpty, path, nil)
	}

	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, ioFailure(ErrOBJRead, path, err)
	}
	return buf, nil
}

func ioFailure(kind error, path string, cause error) *OBJError {
	detail := path
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", path, cause)
	}
	return &OBJError{Kind: OBJIOFailure, Detail: detail, Err: kind}
}
