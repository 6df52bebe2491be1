package storageutil

import (
	"context"
	"encoding/json"
	"errors"

	"cloud.google.com/go/storage"
	"github.com/pierrec/lz4/v4"
)

// ErrObjectNotFound indicates a profile blob was not found in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// CompressedWrite compresses and writes a profile blob to Google Cloud Storage.
func CompressedWrite(ctx context.Context, b *storage.BucketHandle, objectName string, d interface{}) error {
	ow := b.Object(objectName).NewWriter(ctx)
	zw := lz4.NewWriter(ow)
	_ = zw.Apply(lz4.CompressionLevelOption(lz4.Level9))
	jw := json.NewEncoder(zw)
	err := jw.Encode(d)
	if err != nil {
		return err
	}
	err = zw.Close()
	if err != nil {
		return err
	}
	return ow.Close()
}

// UnmarshalCompressed reads a compressed profile blob from GCS and
// unmarshals it. A missing object is reported as ErrObjectNotFound.
func UnmarshalCompressed(ctx context.Context, b *storage.BucketHandle, objectName string, d interface{}) error {
	or, err := b.Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	defer or.Close()
	zr := lz4.NewReader(or)
	return json.NewDecoder(zr).Decode(d)
}
