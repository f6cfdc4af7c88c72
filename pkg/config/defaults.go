package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "calbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory booking locks auto-expire so a crashed writer cannot wedge a
	// slot forever.
	DefaultBookingLockTTL = 10 * time.Second

	// The slot catalog the UI offers for selection: 9:00 AM to 5:00 PM in
	// 20-minute steps.
	DefaultSlotDayStart = "9:00 AM"
	DefaultSlotDayEnd   = "5:00 PM"
	DefaultSlotStepMin  = 20

	DefaultPaginationLimit = 100
)
