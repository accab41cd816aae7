package tools

// stringArg reads an optional string argument with a fallback.
func stringArg(args map[string]interface{}, key, fallback string) (value string) {
	value = fallback
	if s, ok := args[key].(string); ok && s != "" {
		value = s
	}
	return value
}

// intArg reads an optional integer argument with a fallback. JSON decoding
// produces float64; schema defaults can inject native ints.
func intArg(args map[string]interface{}, key string, fallback int) (value int) {
	value = fallback
	switch v := args[key].(type) {
	case float64:
		value = int(v)
	case int:
		value = v
	}
	return value
}
