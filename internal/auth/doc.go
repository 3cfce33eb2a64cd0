// Package auth provides staff authentication and authorization for the
// catalog admin.
//
// It supports two authentication modes:
//   - "none": No authentication required (default), every request acts as a superuser
//   - "local": Staff accounts with session cookies for the admin and Bearer tokens for the API
//
// # Configuration
//
//	AUTH_MODE=none   # Default, no auth required
//	AUTH_MODE=local  # Requires a superuser (see /setup or "locallibrary createsuperuser")
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_TOKEN_EXPIRY=720h              # API token expiry (30 days default)
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//
// # Roles
//
// superuser may do everything, librarian may change the catalog, viewer
// may only read it. Use RequireCatalogWrite on routes that modify records.
package auth
