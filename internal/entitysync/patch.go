package entitysync

// Row-level patch semantics: insert prepends (newest first), update replaces
// in place, delete removes by key. All three preserve the order of untouched
// records and keep keys unique.

func prependRecord(records []Record, rec Record) []Record {
	for i, existing := range records {
		if existing.Key() == rec.Key() {
			out := make([]Record, len(records))
			copy(out, records)
			out[i] = rec
			return out
		}
	}
	out := make([]Record, 0, len(records)+1)
	out = append(out, rec)
	out = append(out, records...)
	return out
}

func replaceRecord(records []Record, rec Record) []Record {
	for i, existing := range records {
		if existing.Key() == rec.Key() {
			out := make([]Record, len(records))
			copy(out, records)
			out[i] = rec
			return out
		}
	}
	return records
}

func removeRecord(records []Record, key string) []Record {
	for i, existing := range records {
		if existing.Key() == key {
			out := make([]Record, 0, len(records)-1)
			out = append(out, records[:i]...)
			out = append(out, records[i+1:]...)
			return out
		}
	}
	return records
}
