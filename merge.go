package directedinputs

// mergeValue deep-merges incoming into existing. When both sides are mappings
// the result is the union of their keys with incoming's leaves winning on
// conflict; for anything else incoming replaces existing entirely.
func mergeValue(existing, incoming any) any {
	existingMap, okExisting := existing.(map[string]any)
	incomingMap, okIncoming := incoming.(map[string]any)
	if !okExisting || !okIncoming {
		return deepCopyValue(incoming)
	}
	merged := make(map[string]any, len(existingMap)+len(incomingMap))
	for k, v := range existingMap {
		merged[k] = deepCopyValue(v)
	}
	for k, v := range incomingMap {
		if current, ok := merged[k]; ok {
			merged[k] = mergeValue(current, v)
		} else {
			merged[k] = deepCopyValue(v)
		}
	}
	return merged
}
