package bot

const (
	msgStart = "Hi! I help name the faces found in your photos.\n" +
		"/getface sends a face nobody has named yet. Reply to it with the person's name.\n" +
		"/find <name> sends every photo that person appears in."
	msgUnknown      = "Unknown command. Try /start or /getface."
	msgAllNamed     = "There are no unnamed faces right now."
	msgNamed        = "Face named: %s"
	msgFaceNotFound = "I can't find the face this reply is for. Use /getface to get one."
	msgNotFound     = "No photos of %s found."
	msgFindUsage    = "Usage: /find <name>"
)
