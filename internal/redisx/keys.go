package redisx

import "time"

const (
	// Legacy admin flag: device:{device_id}:isAdmin -> "true" (absent when not set)
	KeyLegacyAdmin = "device:%s:isAdmin"

	// Identity session: session:{token} -> user JSON
	KeySession = "session:%s"

	// OAuth round trip: oauth_state:{state} -> redirect target
	KeyOAuthState = "oauth_state:%s"

	// Cached admin_users lookup: admin_role:{user_id} -> role, or "-" when not an admin
	KeyAdminRole = "admin_role:%s"

	// Cache status order: order_status:{order_number} -> {"status": "...", "payment_status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Bumped on every order write: order_status_ver:{order_number} -> counter
	KeyOrderStatusVersion = "order_status_ver:%s"

	// Rendered invoice PDF: invoice:{order_id} -> bytes
	KeyInvoice = "invoice:%s"

	// Dedup consumer: dedup:{consumer}:{event_id} -> "1"
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLLegacyAdmin = 30 * 24 * time.Hour
	TTLOAuthState  = 10 * time.Minute
	TTLAdminRole   = 5 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLStatusVer   = 10 * time.Minute
	TTLInvoice     = 24 * time.Hour
	TTLDedup       = 24 * time.Hour
)
