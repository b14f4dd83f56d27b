package photosdb

// Querier はテストからクエリの発行先を差し替えるための別名。
type Querier = querier

// InstrumentQuerier はLibraryのクエリ発行先をwrapで包む。
func InstrumentQuerier(l *Library, wrap func(Querier) Querier) {
	l.q = wrap(l.q)
}
