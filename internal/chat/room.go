package chat

// roomSeparator joins the two participant ids of a conversation
const roomSeparator = ":"

// RoomID derives the conversation room id for a pair of participants. The
// ids are ordered lexicographically before joining, so both participants
// compute the identical room id without a lookup.
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + roomSeparator + b
}
