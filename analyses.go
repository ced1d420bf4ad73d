package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amand4priscil4/DetectaBB-Backend-3/config"
	"github.com/amand4priscil4/DetectaBB-Backend-3/models"
	"github.com/amand4priscil4/DetectaBB-Backend-3/queue"
	"github.com/amand4priscil4/DetectaBB-Backend-3/storage"
	"github.com/amand4priscil4/DetectaBB-Backend-3/utils"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

// Accepted boleto uploads and the extension used for the blob object key.
var acceptedFileTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

func acceptedTypesList() string {
	return "image/jpeg, image/png, application/pdf"
}

// submitAnalysisHandler receives a boleto file, validates it, persists the
// bytes and the job row, then enqueues the analysis task. The row is written
// before the enqueue so a lost task can be recovered by the stuck-job sweeper
// instead of leaving an id the API has never heard of.
func submitAnalysisHandler(store models.JobStore, blobs storage.BlobStore, publisher queue.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "campo 'file' é obrigatório"})
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		ext, ok := acceptedFileTypes[contentType]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Tipo de arquivo inválido. Aceitos: " + acceptedTypesList(),
			})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo muito grande. Máximo: 10MB"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			config.LogError(logger, "analyses.go", "submitAnalysisHandler", "FormFile open", nil, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "não foi possível ler o arquivo"})
			return
		}
		defer src.Close()

		// The declared size can lie; read with a hard cap and re-check.
		data, err := io.ReadAll(io.LimitReader(src, maxUploadSizeBytes+1))
		if err != nil {
			config.LogError(logger, "analyses.go", "submitAnalysisHandler", "read upload", nil, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "não foi possível ler o arquivo"})
			return
		}
		if len(data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo vazio"})
			return
		}
		if int64(len(data)) > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo muito grande. Máximo: 10MB"})
			return
		}

		analysisId := uuid.NewString()
		objectKey := "analyses/" + analysisId + ext
		ctx := utils.SetAnalysisIdInContext(c.Request.Context(), analysisId)

		if err := blobs.Put(ctx, objectKey, data, contentType); err != nil {
			config.LogError(logger, "analyses.go", "submitAnalysisHandler", "blob put", objectKey, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "serviço de armazenamento indisponível"})
			return
		}

		// Thumbnail is a UI nicety; failure never blocks the analysis.
		if contentType == "image/jpeg" || contentType == "image/png" {
			if thumb, err := storage.MakeThumbnail(data); err == nil {
				if err := blobs.Put(ctx, storage.ThumbnailKey(objectKey), thumb, "image/jpeg"); err != nil {
					logger.WithFields(logrus.Fields{
						"field":      "submitAnalysisHandler",
						"object_key": objectKey,
					}).Warn("thumbnail upload failed: " + err.Error())
				}
			}
		}

		job := &models.AnalysisJob{
			ID:         analysisId,
			Status:     models.AnalysisStatusProcessing,
			UploadedAt: time.Now().UTC(),
			FileName:   fileHeader.Filename,
			FileSize:   int64(len(data)),
			FileType:   contentType,
			ObjectKey:  objectKey,
		}
		if err := store.Insert(ctx, job); err != nil {
			config.LogError(logger, "analyses.go", "submitAnalysisHandler", "job insert", analysisId, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "serviço temporariamente indisponível"})
			return
		}

		task := queue.AnalysisTask{
			AnalysisId: analysisId,
			ObjectKey:  objectKey,
			FileType:   contentType,
		}
		if err := publisher.Publish(ctx, task); err != nil {
			// The row stays in processing; the sweeper re-enqueues it later.
			config.LogError(logger, "analyses.go", "submitAnalysisHandler", "enqueue task", analysisId, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fila de processamento indisponível"})
			return
		}

		logger.WithFields(logrus.Fields{
			"analysis_id": analysisId,
			"file_type":   contentType,
			"file_size":   len(data),
		}).Info("[analysis.submitted]")

		c.JSON(http.StatusOK, gin.H{
			"id":       analysisId,
			"status":   models.AnalysisStatusProcessing,
			"fileName": fileHeader.Filename,
			"fileSize": len(data),
			"fileType": contentType,
			"message":  "Boleto recebido e adicionado à fila de processamento",
		})
	}
}

func getAnalysisHandler(store models.JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		analysisId := c.Param("id")
		job, err := store.Find(c.Request.Context(), analysisId)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Análise não encontrada"})
				return
			}
			config.LogError(config.GetLogger(), "analyses.go", "getAnalysisHandler", "job find", analysisId, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "serviço temporariamente indisponível"})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}
