package bot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// FileType is the file_type of an uploaded file.
type FileType string

const (
	FileOpus   FileType = "opus"
	FileMP4    FileType = "mp4"
	FilePDF    FileType = "pdf"
	FileDoc    FileType = "doc"
	FileXLS    FileType = "xls"
	FilePPT    FileType = "ppt"
	FileStream FileType = "stream"
)

// UploadImage uploads a local image for use in messages and returns its image key.
func (b *Bot) UploadImage(ctx context.Context, path string) (string, error) {
	const op = "upload image"
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	req := larkim.NewCreateImageReqBuilder().
		Body(larkim.NewCreateImageReqBodyBuilder().
			ImageType("message").
			Image(f).
			Build()).
		Build()

	resp, err := b.client.Im.Image.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return "", b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}
	if resp.Data == nil || resp.Data.ImageKey == nil {
		return "", fmt.Errorf("%s: %w", op, ErrNoData)
	}
	return *resp.Data.ImageKey, nil
}

// DownloadImage saves an image uploaded by this app to savePath.
func (b *Bot) DownloadImage(ctx context.Context, imageKey, savePath string) error {
	const op = "download image"
	req := larkim.NewGetImageReqBuilder().
		ImageKey(imageKey).
		Build()

	resp, err := b.client.Im.Image.Get(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}
	if resp.File == nil {
		return fmt.Errorf("%s: %w", op, ErrNoData)
	}
	if err := writeFileAtomic(savePath, resp.File); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UploadFile uploads a local file and returns its file key. The remote file
// name is the base name of path.
func (b *Bot) UploadFile(ctx context.Context, path string, fileType FileType) (string, error) {
	const op = "upload file"
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	req := larkim.NewCreateFileReqBuilder().
		Body(larkim.NewCreateFileReqBodyBuilder().
			FileType(string(fileType)).
			FileName(filepath.Base(path)).
			File(f).
			Build()).
		Build()

	resp, err := b.client.Im.File.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return "", b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}
	if resp.Data == nil || larkcore.StringValue(resp.Data.FileKey) == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoData)
	}
	return *resp.Data.FileKey, nil
}

// DownloadFile saves a file uploaded by this app to savePath.
func (b *Bot) DownloadFile(ctx context.Context, fileKey, savePath string) error {
	const op = "download file"
	req := larkim.NewGetFileReqBuilder().
		FileKey(fileKey).
		Build()

	resp, err := b.client.Im.File.Get(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}
	if resp.File == nil {
		return fmt.Errorf("%s: %w", op, ErrNoData)
	}
	if err := writeFileAtomic(savePath, resp.File); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DownloadMessageImage downloads an image attached to a received message.
// Image.Get only works for images this app uploaded itself, so resources
// sent by users go through the MessageResource API.
func (b *Bot) DownloadMessageImage(ctx context.Context, messageID, imageKey string) (io.ReadCloser, error) {
	r, _, err := b.messageResource(ctx, "download message image", messageID, imageKey, "image")
	return r, err
}

// DownloadMessageFile downloads a file attached to a received message and
// returns the server-provided file name.
func (b *Bot) DownloadMessageFile(ctx context.Context, messageID, fileKey string) (io.ReadCloser, string, error) {
	return b.messageResource(ctx, "download message file", messageID, fileKey, "file")
}

func (b *Bot) messageResource(ctx context.Context, op, messageID, key, kind string) (io.ReadCloser, string, error) {
	req := larkim.NewGetMessageResourceReqBuilder().
		MessageId(messageID).
		FileKey(key).
		Type(kind).
		Build()

	resp, err := b.client.Im.MessageResource.Get(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return nil, "", b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}
	if resp.File == nil {
		return nil, "", fmt.Errorf("%s: %w", op, ErrNoData)
	}
	return io.NopCloser(resp.File), resp.FileName, nil
}

// writeFileAtomic copies r into path through a temp file in the same
// directory, creating parent directories as needed.
func writeFileAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
