package auth

// OwnsResource is the ownership predicate gating every mutation. It only
// compares values; the caller is responsible for claimedOwner coming from a
// verified Principal rather than from request input.
func OwnsResource(claimedOwner, resourceOwner string) bool {
	return claimedOwner == resourceOwner
}
