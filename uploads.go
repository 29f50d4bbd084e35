package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/config"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

// Receipt attachments only: original documents or photos of them.
var allowedReceiptTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// uploadHandler stores a receipt and returns {url, key} for the expense
// payload. Image receipts also get a 200px thumbnail; thumbnail failure is a
// warning, never a request failure.
// POST /upload, multipart field "file", max 5 MiB.
func (app *App) uploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := requirePrincipal(c)
		if !ok {
			return
		}
		if !requirePermission(c, principal, auth.PermCreateExpense) {
			return
		}
		if app.receipts == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not configured"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}

		ext := strings.ToLower(path.Ext(fileHeader.Filename))
		contentType, allowed := allowedReceiptTypes[ext]
		if !allowed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only pdf, jpg, jpeg and png receipts are accepted"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
		if err != nil {
			respondError(c, app.logger, err)
			return
		}
		if int64(len(data)) > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}

		ctx := c.Request.Context()
		objectKey := fmt.Sprintf("receipts/%d/%s%s", principal.ID, uuid.NewString(), ext)
		url, err := app.receipts.Upload(ctx, objectKey, contentType, bytes.NewReader(data))
		if err != nil {
			respondError(c, app.logger, err)
			return
		}

		body := gin.H{
			"url": url,
			"key": objectKey,
		}

		if imageExtensions[ext] {
			thumbURL, err := app.uploadThumbnail(c, objectKey, data)
			if err != nil {
				config.LogError(app.logger, "uploads.go", "uploadHandler", "thumbnail", objectKey, err)
				body["warning"] = "receipt stored but thumbnail generation failed"
			} else {
				body["thumbnail_url"] = thumbURL
			}
		}

		c.JSON(http.StatusCreated, body)
	}
}

func (app *App) uploadThumbnail(c *gin.Context, objectKey string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	return app.receipts.Upload(c.Request.Context(), thumbnailObjectKey(objectKey), "image/jpeg", &buf)
}

func thumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}
