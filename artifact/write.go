package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// pending is a staged artifact and, when the destination already existed, a
// staged copy of what it held
type pending struct {
	tmp, backup, dst string
}

func stage(dst string, b []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// backup stages a copy of dst if it is an existing regular file
func backup(dst string) (string, error) {
	info, err := os.Lstat(dst)
	switch {
	case os.IsNotExist(err):
		return "", nil
	case err != nil:
		return "", err
	case !info.Mode().IsRegular():
		return "", nil
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		return "", err
	}
	return stage(dst, b)
}

// WriteFiles writes the header and source artifacts. Both are staged to
// temporary files next to their destination first and existing artifacts are
// only replaced once both have been written. If replacing the second fails
// the first is put back the way it was.
func WriteFiles(header, source string, d *Data, o Options) error {
	contents := []struct {
		dst string
		b   []byte
	}{
		{header, Header(d, o)},
		{source, Source(d, o, filepath.Base(header))},
	}

	var staged []pending
	cleanup := func() {
		for _, p := range staged {
			os.Remove(p.tmp)
			if p.backup != "" {
				os.Remove(p.backup)
			}
		}
	}
	defer cleanup()

	for _, c := range contents {
		old, err := backup(c.dst)
		if err != nil {
			return fmt.Errorf("write %s: %w", c.dst, err)
		}
		tmp, err := stage(c.dst, c.b)
		if err != nil {
			if old != "" {
				os.Remove(old)
			}
			return fmt.Errorf("write %s: %w", c.dst, err)
		}
		staged = append(staged, pending{tmp: tmp, backup: old, dst: c.dst})
	}

	for i, p := range staged {
		if err := os.Rename(p.tmp, p.dst); err != nil {
			for _, done := range staged[:i] {
				if done.backup == "" {
					os.Remove(done.dst)
					continue
				}
				os.Rename(done.backup, done.dst)
			}
			return fmt.Errorf("write %s: %w", p.dst, err)
		}
	}

	return nil
}
