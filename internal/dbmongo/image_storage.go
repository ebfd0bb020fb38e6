package dbmongo

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImageStorage stores artwork and avatar images in GridFS. Notification
// rows reference these files through their image URL.
type ImageStorage struct {
	bucket *gridfs.Bucket
}

func NewImageStorage(client *MongoClient) *ImageStorage {
	return &ImageStorage{bucket: client.GridFS}
}

type ImageFile struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func (s *ImageStorage) Upload(ctx context.Context, filename, contentType, uploaderID string, content io.Reader) (*ImageFile, error) {
	metadata := bson.M{
		"content_type": contentType,
		"uploaded_by":  uploaderID,
		"uploaded_at":  time.Now(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer stream.Close()

	size, err := io.Copy(stream, content)
	if err != nil {
		return nil, fmt.Errorf("file copy failed: %w", err)
	}

	return &ImageFile{
		ID:          stream.FileID.(primitive.ObjectID).Hex(),
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		UploadedBy:  uploaderID,
		UploadedAt:  time.Now(),
	}, nil
}

func (s *ImageStorage) Download(ctx context.Context, fileID string) (io.Reader, *ImageFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid file ID: %w", err)
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	file := stream.GetFile()
	info := &ImageFile{
		ID:       fileID,
		Filename: file.Name,
		Size:     file.Length,
	}
	return stream, info, nil
}

func (s *ImageStorage) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID: %w", err)
	}
	if err := s.bucket.Delete(objectID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
