package routes

import (
	"cms0/internal/config"
	"cms0/internal/handlers"
	"cms0/internal/services"
	"cms0/internal/utils/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/labstack/echo/v4"
)

// SetupUploadRoutes wires the media upload endpoint. Uploads are
// authentication-only; downloads go through presigned URLs.
func SetupUploadRoutes(api *echo.Group, cfg *config.Config, uploader *services.S3Service) {
	log := logger.New("upload_routes")

	if uploader != nil {
		handlers.RegisterStorageHandler(uploader)
	}

	uploadHandler := handlers.NewUploadHandler(
		types.ObjectCannedACLAuthenticatedRead,
	)

	mediaGroup := api.Group("/media")

	mediaGroup.POST("/upload", uploadHandler.UploadFile)

	log.Success("Upload routes initialized successfully")
}
