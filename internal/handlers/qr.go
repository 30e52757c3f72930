package handlers

import (
	"context"

	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/qrimage"
	"github.com/serroba/linkmark/internal/shortener"
	"go.uber.org/zap"
)

// QRHandler handles QR code management and images.
type QRHandler struct {
	qrs      *shortener.QRService
	reporter *analytics.Reporter
	baseURL  string
	logger   *zap.Logger
}

func NewQRHandler(qrs *shortener.QRService, reporter *analytics.Reporter, baseURL string, logger *zap.Logger) *QRHandler {
	return &QRHandler{qrs: qrs, reporter: reporter, baseURL: baseURL, logger: logger}
}

func (h *QRHandler) Create(ctx context.Context, req *CreateQRRequest) (*QRResponse, error) {
	qr, err := h.qrs.Create(ctx, shortener.CreateQRInput{
		URL:             req.Body.URL,
		CustomCode:      req.Body.CustomCode,
		Title:           req.Body.Title,
		OwnerID:         auth.UserID(ctx),
		TrackingEnabled: req.Body.TrackingEnabled,
	})
	if err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	return &QRResponse{Body: h.toBody(qr)}, nil
}

func (h *QRHandler) List(ctx context.Context, req *ListRequest) (*QRListResponse, error) {
	page := domain.NewPage(req.Page, req.Limit)

	codes, total, err := h.qrs.List(ctx, auth.UserID(ctx), page)
	if err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	resp := &QRListResponse{}
	resp.Body.Data = make([]QRBody, 0, len(codes))
	resp.Body.Pagination = pagination(page, total)

	for _, qr := range codes {
		resp.Body.Data = append(resp.Body.Data, h.toBody(qr))
	}

	return resp, nil
}

func (h *QRHandler) Get(ctx context.Context, req *IDRequest) (*QRResponse, error) {
	qr, err := h.qrs.Get(ctx, req.ID, auth.UserID(ctx))
	if err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	return &QRResponse{Body: h.toBody(qr)}, nil
}

func (h *QRHandler) Update(ctx context.Context, req *UpdateQRRequest) (*QRResponse, error) {
	qr, err := h.qrs.Update(ctx, req.ID, auth.UserID(ctx), shortener.UpdateQRInput{
		URL:      req.Body.URL,
		Title:    req.Body.Title,
		IsActive: req.Body.IsActive,
	})
	if err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	return &QRResponse{Body: h.toBody(qr)}, nil
}

func (h *QRHandler) Delete(ctx context.Context, req *IDRequest) (*EmptyResponse, error) {
	if err := h.qrs.Delete(ctx, req.ID, auth.UserID(ctx)); err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	return &EmptyResponse{}, nil
}

// Image renders the code's scan URL as a PNG.
func (h *QRHandler) Image(ctx context.Context, req *QRImageRequest) (*BinaryResponse, error) {
	qr, err := h.qrs.Get(ctx, req.ID, auth.UserID(ctx))
	if err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	png, err := qrimage.PNG(h.scanURL(qr.Code), req.Size)
	if err != nil {
		return nil, apiError(h.logger, err, "qr image")
	}

	return &BinaryResponse{
		ContentType:  "image/png",
		CacheControl: "private, max-age=3600",
		Body:         png,
	}, nil
}

func (h *QRHandler) Analytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	qr, err := h.qrs.Get(ctx, req.ID, auth.UserID(ctx))
	if err != nil {
		return nil, apiError(h.logger, err, "qr code")
	}

	summary, err := h.reporter.Report(ctx, analytics.QRCode(qr.ID), req.Days)
	if err != nil {
		return nil, apiError(h.logger, err, "qr analytics")
	}

	return &AnalyticsResponse{Body: summary}, nil
}

func (h *QRHandler) scanURL(code string) string {
	return h.baseURL + "/q/" + code
}

func (h *QRHandler) toBody(qr *shortener.QRCode) QRBody {
	return QRBody{
		ID:              qr.ID,
		Code:            qr.Code,
		ScanURL:         h.scanURL(qr.Code),
		ImageURL:        h.baseURL + "/api/qr/" + qr.ID + "/image.png",
		TargetURL:       qr.TargetURL,
		Title:           qr.Title,
		IsActive:        qr.IsActive,
		TrackingEnabled: qr.TrackingEnabled,
		ScanCount:       qr.ScanCount,
		CreatedAt:       qr.CreatedAt,
	}
}
