package units

// builtinDefinitions seeds every Registry. Order matters: each line may only
// reference units defined above it.
var builtinDefinitions = []string{
	"gram = [mass] = g",
	"meter = [length] = m = metre",
	"second = [time] = s = sec",
	"kelvin = [temperature] = K",
	"mole = [substance] = mol",
	"ampere = [current] = A",
	"candela = [luminosity] = cd",
	"minute = 60 * second = min",
	"hour = 60 * minute = h = hr",
	"day = 24 * hour = d",
	"hertz = 1 / second = Hz",
	"newton = kilogram * meter / second ** 2 = N",
	"joule = newton * meter = J",
	"watt = joule / second = W",
	"pascal = newton / meter ** 2 = Pa",
	"coulomb = ampere * second = C",
	"volt = joule / coulomb = V",
	"liter = decimeter ** 3 = L = l = litre",
	"molar = mole / liter = M",
	"calorie = 4.184 * joule = cal",
	"electron_volt = 1.602176634e-19 * joule = eV",
	"bar = 100000 * pascal = bar",
	"atmosphere = 101325 * pascal = atm",
}

type prefix struct {
	name   string
	symbol string
	factor float64
}

// prefixes is ordered longest-name first so "deca" wins over "deci" lookups
// that share a leading substring.
var prefixes = []prefix{
	{"yotta", "Y", 1e24},
	{"zetta", "Z", 1e21},
	{"exa", "E", 1e18},
	{"peta", "P", 1e15},
	{"tera", "T", 1e12},
	{"giga", "G", 1e9},
	{"mega", "M", 1e6},
	{"kilo", "k", 1e3},
	{"hecto", "h", 1e2},
	{"deca", "da", 1e1},
	{"deci", "d", 1e-1},
	{"centi", "c", 1e-2},
	{"milli", "m", 1e-3},
	{"micro", "µ", 1e-6},
	{"micro", "u", 1e-6},
	{"nano", "n", 1e-9},
	{"pico", "p", 1e-12},
	{"femto", "f", 1e-15},
	{"atto", "a", 1e-18},
	{"zepto", "z", 1e-21},
	{"yocto", "y", 1e-24},
}
