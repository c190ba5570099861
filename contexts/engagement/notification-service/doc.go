// Package notificationservice stores per-user notifications produced
// from engagement events and serves the inbox endpoints.
package notificationservice
