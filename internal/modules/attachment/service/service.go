package attachment

import (
	"context"
	"log"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/attachment/dto"
	attachmentRepo "hmcc.com/communityplatform/internal/modules/attachment/repository"
	"hmcc.com/communityplatform/pkg/apperror"
	"hmcc.com/communityplatform/pkg/storage"
)

const maxUploadSize = 10 << 20 // 10 MiB

var allowedFolders = map[string]bool{
	"avatars":     true,
	"posts":       true,
	"events":      true,
	"communities": true,
}

type AttachmentService interface {
	Upload(ctx context.Context, userID uuid.UUID, folder string, file *multipart.FileHeader) (*dto.UploadAttachmentResponse, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type attachmentService struct {
	repo        attachmentRepo.AttachmentRepository
	fileStorage storage.FileStorage
}

func NewAttachmentService(repo attachmentRepo.AttachmentRepository, fileStorage storage.FileStorage) AttachmentService {
	return &attachmentService{
		repo:        repo,
		fileStorage: fileStorage,
	}
}

func (s *attachmentService) Upload(ctx context.Context, userID uuid.UUID, folder string, file *multipart.FileHeader) (*dto.UploadAttachmentResponse, error) {
	if s.fileStorage == nil {
		return nil, apperror.New(0, "file uploads are not configured", apperror.ErrInternal)
	}
	if file.Size > maxUploadSize {
		return nil, apperror.New(0, "file exceeds the 10MB limit", apperror.ErrInvalidInput)
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.New(0, "only image uploads are supported", apperror.ErrInvalidInput)
	}

	if folder == "" || !allowedFolders[folder] {
		folder = "posts"
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	url, err := s.fileStorage.Upload(ctx, f, folder, file.Filename)
	if err != nil {
		return nil, err
	}

	attachment := &entity.Attachment{
		UserID:   userID,
		FileURL:  url,
		FileType: contentType,
		Folder:   folder,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		return nil, err
	}

	return &dto.UploadAttachmentResponse{
		ID:       attachment.ID,
		FileURL:  attachment.FileURL,
		FileType: attachment.FileType,
	}, nil
}

func (s *attachmentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if attachment.UserID != userID {
		return apperror.ErrForbidden
	}

	if s.fileStorage != nil {
		if err := s.fileStorage.Delete(ctx, attachment.FileURL); err != nil {
			// The DB row still goes away; cleanup can retry on the provider.
			log.Printf("Failed to delete file %s: %v", attachment.FileURL, err)
		}
	}
	return s.repo.Delete(ctx, id)
}
