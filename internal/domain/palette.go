package domain

// Иконки для подключённых пользователей.
var Icons = []string{
	"👩", "👨", "👧", "👦", "👶", "👵", "👴", "🧑", "👱",
	"👸", "🤴", "👰", "🤵", "🧙", "🧚", "🧛", "🦸", "🦹",
}

var Colors = []string{
	"#FF5733", // Red-Orange
	"#33FF57", // Green
	"#3357FF", // Blue
	"#FF33F5", // Pink
	"#F5FF33", // Yellow
	"#33FFF5", // Cyan
	"#FF5733", // Orange
	"#C133FF", // Purple
	"#33FF57", // Lime
	"#3357FF", // Royal Blue
}
