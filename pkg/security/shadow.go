package security

// ShadowPasswordSentinel marks buyer accounts provisioned during checkout
// before the buyer has ever set a password. It is not a valid Argon2id hash,
// so VerifyPassword always rejects it.
const ShadowPasswordSentinel = "INITIAL_PAYMENT_PENDING_SET"

// IsShadowHash reports whether the stored credential is the checkout sentinel.
func IsShadowHash(encoded string) bool {
	return encoded == ShadowPasswordSentinel
}
