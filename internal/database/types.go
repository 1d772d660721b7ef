package database

// Entry is one persisted gait signature.
type Entry struct {
	GaitID    int64
	PersonID  int64
	Signature []byte
}

// Values returns the number of float32 values in the stored payload.
func (e Entry) Values() int {
	return len(e.Signature) / 4
}

// LatestByPerson returns the entry with the highest person id, preferring the
// highest gait id among ties. Returns nil for an empty slice.
func LatestByPerson(entries []Entry) *Entry {
	var latest *Entry
	for i := range entries {
		e := &entries[i]
		if latest == nil || e.PersonID > latest.PersonID ||
			(e.PersonID == latest.PersonID && e.GaitID > latest.GaitID) {
			latest = e
		}
	}
	return latest
}

// MaxPersonID returns the highest person id, or 0 for an empty slice.
func MaxPersonID(entries []Entry) int64 {
	var highest int64
	for _, e := range entries {
		highest = max(highest, e.PersonID)
	}
	return highest
}
