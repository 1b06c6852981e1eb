package domain

// CanTransition is the single allow/deny decision for status changes,
// consumed by every mutation path. Admins may set any state from any state.
// The order owner may only cancel, and only while the order is non-terminal.
// from must be the status read inside the transaction performing the write.
func CanTransition(isAdmin, ownerMatch bool, from, to int) bool {
	if isAdmin {
		return true
	}
	if !ownerMatch {
		return false
	}
	return NormalizeStatus(to) == StatusCancelled && !TerminalStatus(from)
}

// CanDelete permits deletion only for the owner of an already-cancelled
// order. Admin deletion is refused on purpose: deletion is a customer-side
// cleanup of their own cancelled orders, not an administrative operation.
func CanDelete(isAdmin, ownerMatch bool, status int) bool {
	if isAdmin {
		return false
	}
	return ownerMatch && NormalizeStatus(status) == StatusCancelled
}
