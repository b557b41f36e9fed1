package gcsbackup

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
)

// UploadFunc stores r under objectPath.
type UploadFunc func(ctx context.Context, objectPath string, r io.Reader) error

// Snapshotter copies every committed accounts document to object storage.
// Uploads run in the background and never block or fail a request.
type Snapshotter struct {
	Upload  UploadFunc
	Prefix  string
	DocName string
	Timeout time.Duration
	Logger  *logrus.Logger
	Now     func() time.Time

	wg sync.WaitGroup
}

// NewSnapshotter uploads to bucket through a GCS client.
func NewSnapshotter(client *storage.Client, bucket, prefix, docName string, logger *logrus.Logger) *Snapshotter {
	upload := func(ctx context.Context, objectPath string, r io.Reader) error {
		_, err := helpers.UploadObject(ctx, client, bucket, objectPath, "application/json", r)
		return err
	}
	return &Snapshotter{Upload: upload, Prefix: prefix, DocName: docName, Timeout: 30 * time.Second, Logger: logger, Now: time.Now}
}

// Snapshot schedules an upload of doc. The request context is not used for
// the upload so it outlives the request.
func (s *Snapshotter) Snapshot(_ context.Context, doc []byte) {
	objectPath := helpers.SnapshotObjectPath(s.Prefix, s.DocName, s.Now())
	data := append([]byte(nil), doc...)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()
		if err := s.Upload(ctx, objectPath, bytes.NewReader(data)); err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("object", objectPath).Warn("accounts snapshot upload failed")
			}
			return
		}
		if s.Logger != nil {
			s.Logger.WithField("object", objectPath).Debug("accounts snapshot uploaded")
		}
	}()
}

// Wait blocks until in-flight uploads finish.
func (s *Snapshotter) Wait() { s.wg.Wait() }
