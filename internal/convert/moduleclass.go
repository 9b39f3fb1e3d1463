package convert

// moduleClassifier implements the media-class inference state machine from
// spec §4.4's table:
//
//	Unknown -> (class of record)
//	HTML: parser finds <script type="module" src=X> -> record X as JS-module
//	JS-module: X fetches import Y -> record Y as JS-module
//	JS-classic: default for scripts with no module ancestry
//
// Initial state is Unknown for every canonical path; terminal state is
// emission to the sink. This assumes the record stream is in original
// fetch order (spec §5); when that assumption fails, misclassification is
// silent and the conservative fallback — treat an unclassified script as
// classic — applies (spec §9 "Module propagation").
type moduleClassifier struct {
	modules map[string]bool
}

func newModuleClassifier() *moduleClassifier {
	return &moduleClassifier{modules: make(map[string]bool)}
}

// MarkModule records canonicalPath as JS-module, whether discovered from a
// <script type="module" src=X> tag or from a module's own import/export
// specifiers.
func (m *moduleClassifier) MarkModule(canonicalPath string) {
	m.modules[canonicalPath] = true
}

// IsModule reports whether canonicalPath has been discovered as JS-module
// by the time its own record is processed. Absence means "classic" — the
// conservative fallback spec §9 mandates.
func (m *moduleClassifier) IsModule(canonicalPath string) bool {
	return m.modules[canonicalPath]
}
