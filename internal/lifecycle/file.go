package lifecycle

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
)

const sniffLen = 3072

// decodable lists the image types whose headers must parse before the file
// is accepted. Other image/* types are accepted on the sniffed type alone.
var decodable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// spool checks r against rule and copies it to a temp file. declared is the
// client-reported size, or -1 when unknown.
func spool(dir string, rule FileRule, name string, declared int64, r io.Reader) (*pendingFile, error) {
	sizeErr := apierr.Validation(apierr.FieldErrors{"file": rule.SizeMessage})
	typeErr := apierr.Validation(apierr.FieldErrors{"file": rule.TypeMessage})

	if declared > rule.MaxBytes {
		return nil, sizeErr
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, typeErr
	}
	mt := mimetype.Detect(head)
	contentType := strings.SplitN(mt.String(), ";", 2)[0]
	if !strings.HasPrefix(contentType, rule.MIMEPrefix) {
		return nil, typeErr
	}

	tmp, err := os.CreateTemp(dir, "form-upload-*")
	if err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	pf := &pendingFile{path: tmp.Name(), name: filepath.Base(name), contentType: contentType}
	written, err := io.Copy(tmp, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), rule.MaxBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		pf.remove()
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if written > rule.MaxBytes {
		pf.remove()
		return nil, sizeErr
	}
	pf.size = written

	if decodable[contentType] {
		if err := checkImageHeader(pf.path); err != nil {
			pf.remove()
			return nil, typeErr
		}
	}

	pf.ext = extensionFor(name, mt)
	return pf, nil
}

func checkImageHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err
}

func extensionFor(name string, mt *mimetype.MIME) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if !cleanExt(ext) {
		ext = strings.TrimPrefix(mt.Extension(), ".")
	}
	if ext == "" {
		ext = "bin"
	}
	return ext
}

func cleanExt(ext string) bool {
	if ext == "" || len(ext) > 10 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// objectPath names an uploaded object uploads/<unix-millis>-<random>.<ext>.
func objectPath(now time.Time, ext string) string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("uploads/%d-%s.%s", now.UnixMilli(), suffix, ext)
}
