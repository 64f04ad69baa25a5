package consts

const (
	TBASE  = 100.0          // temperature base for scaling thermal unknowns (C)
	TREF   = 20.0           // reference temperature for branch resistance (C)
	KELVIN = 273.15         // Kelvin temperature (K)
	SIGMA  = 5.670374419e-8 // Stefan-Boltzmann constant (W/m^2 K^4)
	ALPHA  = 0.004          // default resistance temperature coefficient (1/K)
)
