package ingest

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/vknow360/otaship/internal/apierror"
)

// Limits bounds the total request body and any single file part the
// ingestion pipeline will buffer, so an adversarial or mistaken
// upload cannot exhaust memory.
type Limits struct {
	MaxTotalBytes int64
	MaxPartBytes  int64
}

// DefaultLimits caps the whole request body at 100MB; individual
// parts are capped tighter since a single asset or bundle is rarely
// that large.
var DefaultLimits = Limits{
	MaxTotalBytes: 100 << 20,
	MaxPartBytes:  50 << 20,
}

// ReadParts drains every file part of a multipart/form-data body into
// memory, keyed by its field name (the publisher-declared relative
// path). Exceeding either limit fails the whole request closed with
// payload_too_large rather than partially buffering.
func ReadParts(reader *multipart.Reader, limits Limits) (map[string][]byte, error) {
	files := make(map[string][]byte)
	var totalRead int64

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierror.Wrap(apierror.KindInputInvalid, "malformed multipart body", err)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		limited := io.LimitReader(part, limits.MaxPartBytes+1)
		data, err := io.ReadAll(limited)
		part.Close()
		if err != nil {
			return nil, apierror.Wrap(apierror.KindInternal, "failed to read part", err)
		}
		if int64(len(data)) > limits.MaxPartBytes {
			return nil, apierror.New(apierror.KindPayloadTooLarge, fmt.Sprintf("part %q exceeds the per-file limit", name))
		}

		totalRead += int64(len(data))
		if totalRead > limits.MaxTotalBytes {
			return nil, apierror.New(apierror.KindPayloadTooLarge, "upload exceeds the total size limit")
		}

		files[name] = data
	}

	return files, nil
}
