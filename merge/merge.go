// Package merge implements catalog reconciliation, equivalent to the
// msgmerge utility: a freshly extracted template is merged against a
// previously translated catalog, preserving matching translations,
// carrying near matches over as fuzzy, and retaining the rest as
// obsolete.
package merge

import (
	po "github.com/minios-linux/mdkit/pofile"
)

// similarityThreshold is the minimum normalized LCS ratio for a fuzzy
// carry-over, matching the msgmerge default. Internal constant, not
// configurable.
const similarityThreshold = 0.60

// Merge reconciles a translated catalog with a POT template.
//   - Exact key matches keep their translation; the fuzzy flag is
//     cleared since the source text is identical again.
//   - Template entries without an exact match borrow the translation of
//     the most similar old entry above the threshold and become fuzzy.
//   - Old entries without an exact match are retained as obsolete,
//     with their references cleared, after all live entries.
//   - New entries get an empty translation.
//
// The result is rebuilt from scratch; neither input is mutated. Output
// order is deterministic: template order, then old-catalog order for
// the obsolete tail.
func Merge(poFile, potFile *po.File) *po.File {
	result := po.NewFile()

	// Keep the PO file's header, update POT-Creation-Date
	if poFile.Header != nil {
		result.Header = poFile.Header.Clone()
	}
	if potFile.Header != nil {
		potCreationDate := potFile.HeaderField("POT-Creation-Date")
		if potCreationDate != "" {
			result.SetHeaderField("POT-Creation-Date", potCreationDate)
		}
	}

	existingByKey := make(map[string]*po.Entry)
	for _, e := range poFile.Entries {
		if _, ok := existingByKey[e.Key()]; ok && !e.Obsolete {
			// A live entry wins over an obsolete one with the same key.
			existingByKey[e.Key()] = e
			continue
		}
		if _, ok := existingByKey[e.Key()]; !ok {
			existingByKey[e.Key()] = e
		}
	}

	matched := make(map[string]bool)

	for _, potEntry := range potFile.Entries {
		if potEntry.MsgID == "" {
			continue
		}

		merged := potEntry.Clone()
		merged.MsgStr = ""
		merged.MsgStrPlural = make(map[int]string)

		if existing, ok := existingByKey[potEntry.Key()]; ok {
			carryTranslation(merged, existing)
			merged.TranslatorComments = append([]string(nil), existing.TranslatorComments...)
			// The source text matches again, so a stale-translation
			// marker no longer applies. Comment or reference changes
			// alone do not invalidate a translation.
			merged.SetFuzzy(false)
			matched[potEntry.Key()] = true
		} else if best := closestEntry(potEntry, poFile.Entries); best != nil {
			carryTranslation(merged, best)
			merged.TranslatorComments = append([]string(nil), best.TranslatorComments...)
			merged.PreviousMsgID = best.MsgID
			merged.SetFuzzy(true)
		}

		result.Entries = append(result.Entries, merged)
	}

	// Retain old entries with no exact match as obsolete. Entries used
	// only as a similarity source are retained too: their exact text no
	// longer occurs in the template.
	for _, e := range poFile.Entries {
		if e.MsgID == "" || matched[e.Key()] {
			continue
		}
		obsolete := e.Clone()
		obsolete.Obsolete = true
		obsolete.References = nil
		result.Entries = append(result.Entries, obsolete)
	}

	return result
}

func carryTranslation(dst, src *po.Entry) {
	dst.MsgStr = src.MsgStr
	dst.MsgStrPlural = make(map[int]string, len(src.MsgStrPlural))
	for k, v := range src.MsgStrPlural {
		dst.MsgStrPlural[k] = v
	}
}

// closestEntry returns the translated old entry most similar to the
// template entry, or nil when nothing reaches the threshold. Old
// entries may serve as the source for several template entries; ties
// resolve to the earliest old entry.
func closestEntry(potEntry *po.Entry, old []*po.Entry) *po.Entry {
	var best *po.Entry
	var bestScore float64
	for _, e := range old {
		if e.MsgID == "" || e.MsgCtxt != potEntry.MsgCtxt {
			continue
		}
		if e.MsgStr == "" && len(e.MsgStrPlural) == 0 {
			continue
		}
		score := similarity(potEntry.MsgID, e.MsgID)
		if score < similarityThreshold || score <= bestScore {
			continue
		}
		bestScore = score
		best = e
	}
	return best
}
