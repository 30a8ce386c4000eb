package colorspec

import "voxedit.ai/internal/sim/voxel"

var names = map[string]voxel.Color{
	"black": rgb(0, 0, 0), "white": rgb(255, 255, 255), "grey": rgb(127, 127, 127), "red": rgb(255, 0, 0),
	"lime": rgb(0, 255, 0), "blue": rgb(0, 0, 255), "yellow": rgb(255, 255, 0), "magenta": rgb(255, 0, 255),
	"cyan": rgb(0, 255, 255), "orange": rgb(255, 165, 0), "pink": rgb(255, 130, 108), "violet": rgb(148, 0, 211),
	"purple": rgb(155, 48, 255), "indigo": rgb(75, 0, 130), "orchid": rgb(218, 112, 214), "lavender": rgb(230, 230, 250),
	"navy": rgb(0, 0, 127), "peacock": rgb(51, 161, 201), "azure": rgb(240, 255, 255), "aqua": rgb(0, 238, 238),
	"turquoise": rgb(64, 224, 208), "teal": rgb(56, 142, 142), "aquamarine": rgb(127, 255, 212), "emerald": rgb(0, 201, 87),
	"sea": rgb(84, 255, 159), "cobalt": rgb(61, 145, 64), "mint": rgb(189, 252, 201), "palegreen": rgb(152, 251, 152),
	"forest": rgb(34, 139, 34), "green": rgb(0, 128, 0), "grass": rgb(124, 252, 0), "chartreuse": rgb(127, 255, 0),
	"olive": rgb(142, 142, 56), "ivory": rgb(238, 238, 224), "beige": rgb(245, 245, 220), "khaki": rgb(240, 230, 140),
	"banana": rgb(227, 207, 87), "gold": rgb(201, 137, 16), "goldenrod": rgb(218, 165, 32), "lace": rgb(253, 245, 230),
	"wheat": rgb(245, 222, 179), "moccasin": rgb(255, 222, 173), "papaya": rgb(255, 239, 213), "eggshell": rgb(252, 230, 201),
	"tan": rgb(210, 180, 140), "brick": rgb(178, 34, 34), "skin": rgb(255, 211, 155), "melon": rgb(227, 168, 105),
	"carrot": rgb(237, 145, 33), "peru": rgb(205, 133, 63), "linen": rgb(250, 240, 230), "peach": rgb(238, 203, 173),
	"chocolate": rgb(139, 69, 19), "sienna": rgb(160, 82, 45), "coral": rgb(255, 127, 80), "sepia": rgb(94, 38, 18),
	"salmon": rgb(198, 113, 113), "tomato": rgb(205, 55, 0), "snow": rgb(255, 250, 250), "brown": rgb(165, 42, 42),
	"maroon": rgb(128, 0, 0), "beet": rgb(142, 56, 142), "gray": rgb(91, 91, 91), "crimson": rgb(220, 20, 60),
	"dew": rgb(240, 255, 240), "dirt": rgb(71, 48, 35), "bronze": rgb(150, 90, 56), "wood": rgb(193, 154, 107),
	"silver": rgb(168, 168, 168), "lava": rgb(205, 53, 39), "oakwood": rgb(115, 81, 58), "redwood": rgb(165, 42, 42),
	"sand": rgb(244, 164, 96), "chestnut": rgb(149, 69, 53), "russet": rgb(128, 70, 27), "cream": rgb(255, 253, 208),
	"sky": rgb(135, 206, 235), "water": rgb(65, 105, 225), "smoke": rgb(245, 245, 245), "classic": rgb(128, 232, 255),
	"fog": rgb(134, 226, 254), "default": rgb(69, 43, 30), "player": rgb(216, 164, 107), "case": rgb(56, 40, 28),
	"ground": rgb(103, 64, 40), "lemon": rgb(255, 255, 127), "rose": rgb(255, 0, 127), "fuchsia": rgb(255, 0, 255),
}

func rgb(r, g, b uint8) voxel.Color { return voxel.Color{R: r, G: g, B: b} }
