package service

import (
	"context"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/storage"

	"github.com/rs/zerolog"
)

const msgUploadUnavailable = "Uploads are unavailable right now. Please try again later."

type UploadInput struct {
	Kind        string `json:"kind" validate:"required,oneof=avatar thumbnail cover background"`
	ContentType string `json:"content_type" validate:"required,oneof=image/png image/jpeg image/webp image/gif"`
}

// Upload tells the client where to PUT the file and where it will be served from.
type Upload struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
}

// Presigner issues short-lived upload URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}

type UploadService interface {
	PresignUpload(ctx context.Context, id auth.Identity, in *UploadInput) pipeline.Result
}

type uploadService struct {
	presigner Presigner
	publicURL func(key string) string
	p         *pipeline.Pipeline
	logger    zerolog.Logger
}

func NewUploadService(presigner Presigner, publicURL func(key string) string, p *pipeline.Pipeline, logger zerolog.Logger) UploadService {
	return &uploadService{
		presigner: presigner,
		publicURL: publicURL,
		p:         p,
		logger:    logger.With().Str("service", "UploadService").Logger(),
	}
}

func uploadGate(_ context.Context, _ auth.Identity, f model.FeatureFlags, in *UploadInput) error {
	switch in.Kind {
	case "thumbnail":
		return pipeline.Require(f.CanUseThumbnails, MsgThumbnails)
	case "cover":
		return pipeline.Require(f.CanUseLinkCovers, MsgCovers)
	case "background":
		return pipeline.Require(f.CanUseBackgroundImage, MsgBackgroundImage)
	}
	return nil
}

func (s *uploadService) PresignUpload(ctx context.Context, id auth.Identity, in *UploadInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[UploadInput]{
		Name:     "upload.presign",
		ReadOnly: true,
		Gate:     uploadGate,
		Mutate: func(ctx context.Context, id auth.Identity, in *UploadInput) (any, error) {
			ext, ok := storage.Extension(in.ContentType)
			if !ok {
				return nil, apperr.New(apperr.ValidationFailed, "Unsupported file type.")
			}
			key := storage.ObjectKey(in.Kind, id.UserID, ext)
			url, err := s.presigner.PresignPut(ctx, key, in.ContentType)
			if err != nil {
				return nil, apperr.Wrap(apperr.UpstreamFailure, msgUploadUnavailable, err)
			}
			return Upload{UploadURL: url, PublicURL: s.publicURL(key), Key: key}, nil
		},
	}, in)
}
