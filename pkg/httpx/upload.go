package httpx

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/aussiebroadwan/blogd/pkg/media"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

// DefaultMaxUploadBytes bounds a multipart request body.
const DefaultMaxUploadBytes = 10 << 20

// StagedUpload is the file staged for the current request. The handler
// calls Commit once its own work has succeeded; an upload that was never
// committed is discarded when the request finishes.
type StagedUpload struct {
	media.Staged

	stager    media.Stager
	mu        sync.Mutex
	committed bool
	key       string
}

// Commit moves the upload to permanent storage and returns its key. It is
// safe to call more than once.
func (u *StagedUpload) Commit(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.committed {
		return u.key, nil
	}
	key, err := u.stager.Commit(ctx, u.Staged)
	if err != nil {
		return "", err
	}
	u.committed, u.key = true, key
	return key, nil
}

func (u *StagedUpload) isCommitted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.committed
}

// UploadFromContext returns the upload staged by StageUpload. ok is false
// when the request carried no file.
func UploadFromContext(ctx context.Context) (*StagedUpload, bool) {
	u, ok := ctx.Value(ctxKeyUpload).(*StagedUpload)
	return u, ok && u != nil
}

// StageUpload parses a multipart body, stages the file in field through
// stager and exposes it to the rest of the chain. Whatever happens
// downstream, an upload that was not committed is discarded before the
// middleware returns, including when an inner Guard rejects the request or
// the handler panics.
func StageUpload(stager media.Stager, field string, maxBytes int64) Middleware {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			if err := r.ParseMultipartForm(maxBytes); err != nil {
				var tooLarge *http.MaxBytesError
				switch {
				case errors.As(err, &tooLarge):
					ErrPayloadTooLarge.Write(w)
				case errors.Is(err, http.ErrNotMultipart):
					ErrInvalidRequest.WithDescription("Expected a multipart/form-data body.").Write(w)
				default:
					ErrInvalidRequest.WithDescription("Malformed multipart body.").Write(w)
				}
				return
			}
			defer func() { _ = r.MultipartForm.RemoveAll() }()

			file, hdr, err := r.FormFile(field)
			if errors.Is(err, http.ErrMissingFile) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				ErrInvalidRequest.WithDescription("Unreadable file in field %q.", field).Write(w)
				return
			}

			staged, err := stager.Stage(r.Context(), media.Upload{
				Filename:    hdr.Filename,
				ContentType: hdr.Header.Get("Content-Type"),
				Size:        hdr.Size,
				Body:        file,
			})
			_ = file.Close()
			if errors.Is(err, media.ErrEmpty) {
				ErrInvalidRequest.WithDescription("Uploaded file is empty.").Write(w)
				return
			}
			if err != nil {
				mUploads.WithLabelValues("failed").Inc()
				log.Error("stage upload", "err", err)
				ErrServer.Write(w)
				return
			}

			up := &StagedUpload{Staged: staged, stager: stager}
			defer func() {
				if up.isCommitted() {
					mUploads.WithLabelValues("committed").Inc()
					return
				}
				// The request context may already be cancelled.
				ctx := context.WithoutCancel(r.Context())
				if err := stager.Discard(ctx, staged); err != nil {
					log.Warn("discard staged upload", "key", staged.Key, "err", err)
				}
				mUploads.WithLabelValues("discarded").Inc()
			}()

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUpload, up)))
		})
	}
}
