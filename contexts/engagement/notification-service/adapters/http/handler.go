package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"greenloop/contexts/engagement/notification-service/application"
	"greenloop/contexts/engagement/notification-service/ports"
	httptransport "greenloop/contexts/engagement/notification-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func notificationDTO(notification ports.Notification) httptransport.NotificationDTO {
	return httptransport.NotificationDTO{
		NotificationID: notification.NotificationID,
		Title:          notification.Title,
		Message:        notification.Message,
		Kind:           notification.Kind,
		Read:           notification.Read,
		CreatedAt:      notification.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h Handler) ListHandler(ctx context.Context, userID string, unreadOnly bool, limit int) (httptransport.NotificationListResponse, error) {
	items, err := h.Service.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		return httptransport.NotificationListResponse{}, err
	}
	resp := httptransport.NotificationListResponse{
		Status: "success",
		Data:   make([]httptransport.NotificationDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, notificationDTO(item))
	}
	return resp, nil
}

func (h Handler) MarkReadHandler(ctx context.Context, userID string, notificationID string) (httptransport.NotificationResponse, error) {
	notification, err := h.Service.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return httptransport.NotificationResponse{}, err
	}
	return httptransport.NotificationResponse{
		Status: "success",
		Data:   notificationDTO(notification),
	}, nil
}

func (h Handler) MarkAllReadHandler(ctx context.Context, userID string) (httptransport.MarkAllReadResponse, error) {
	marked, err := h.Service.MarkAllRead(ctx, userID)
	if err != nil {
		return httptransport.MarkAllReadResponse{}, err
	}
	resp := httptransport.MarkAllReadResponse{Status: "success"}
	resp.Data.Marked = marked
	return resp, nil
}
