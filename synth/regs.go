package synth

// Board control-register file.  16 bits wide, short addresses.
const (
	regStatus  = 0
	regLED     = 1
	regControl = 2
)

// Field descriptors for the board register file.  These are wire-format
// constants, not configuration.
var (
	// status register

	// FieldVariantStrap reads the assembly-variant strap pins.  0 means
	// the upconversion chain is populated.
	FieldVariantStrap = RegisterField{regStatus, 0, 2}

	// FieldHWRev is the hardware revision of the board.
	FieldHWRev = RegisterField{regStatus, 2, 4}

	// FieldProtoRev is the register-protocol revision of the gateware.
	FieldProtoRev = RegisterField{regStatus, 6, 2}

	// FieldModLock mirrors the modulators' lock-detect pins, one bit per
	// chip: high once that chip's internal PLL has achieved lock.
	FieldModLock = RegisterField{regStatus, 8, 2}

	// control register

	// FieldAtt0RstN and FieldAtt1RstN are the attenuator resets, active
	// low.
	FieldAtt0RstN = RegisterField{regControl, 0, 1}
	FieldAtt1RstN = RegisterField{regControl, 1, 1}

	// FieldDACResetN is the DAC reset, active low.
	FieldDACResetN = RegisterField{regControl, 2, 1}

	// FieldDACIFResetN resets the DAC data interface, active low.
	FieldDACIFResetN = RegisterField{regControl, 3, 1}

	// FieldDACSleep places the DAC output stage in sleep.
	FieldDACSleep = RegisterField{regControl, 4, 1}

	// FieldDACTxEna gates the transmit path.
	FieldDACTxEna = RegisterField{regControl, 5, 1}

	// FieldDACPlay starts clocking samples into the DAC.
	FieldDACPlay = RegisterField{regControl, 6, 1}

	// FieldDACTestEna routes the gateware test pattern generator to the
	// DAC data lanes instead of live samples.
	FieldDACTestEna = RegisterField{regControl, 7, 1}
)

// DAC internal registers, reached through the extended address space.
const (
	dacRegConfig0 = 0x00 // interpolation, FIFO enable
	dacRegConfig1 = 0x01 // data path routing
	dacRegConfig2 = 0x02 // interface options; bit 7 enables 4-wire SIF
	dacRegConfig3 = 0x03 // coarse gain
	dacRegAlarmA  = 0x05 // alarm flags, write 0 to clear
	dacRegMask0   = 0x06 // alarm mask bank 0
	dacRegMask1   = 0x07 // alarm mask bank 1
	dacRegQMCOffA = 0x08 // QMC offset, channel pair A
	dacRegFIFOOff = 0x09 // FIFO write-pointer offset
	dacRegClkCfg  = 0x0a // clock source selection
	dacRegPLL0    = 0x0c // PLL sleep / enable
	dacRegPLL1    = 0x0d // PLL dividers
	dacRegIOTest  = 0x0e // IO test pattern control
	dacRegSleep   = 0x16 // per-block sleep bits
	dacRegFuse    = 0x18 // fuse-sleep: bias hold after configuration
	dacRegVersion = 0x7f // chip id and version
)

// dacSIF4Ena enables the 4-wire control interface (config2 bit 7).
const dacSIF4Ena = 1 << 7

// dacVersionID is the value a live, correct DAC reports at dacRegVersion.
const dacVersionID = 0x5409

// dacIOTestEna turns on the built-in IO self-test pattern checker.
const dacIOTestEna = 1 << 15

// Alarm register bits.  alarmIOTest latches when the LVDS interface
// pattern check fails.
const (
	alarmFIFOCollision = 1 << 15
	alarmFIFONearFull  = 1 << 14
	alarmFIFONearEmpty = 1 << 13
	alarmIOTest        = 1 << 12
	alarmDACClockGone  = 1 << 4
	alarmDataClockGone = 1 << 3
)

// modIDByte is the identification byte both modulator chips report in the
// low seven bits of their register 0.
const modIDByte = 0x68

// dacGenerationScript is the provisioning sequence EnableGeneration clocks
// into the DAC.  The order is load bearing: the clock path must be selected
// before the FIFO offset is written, and the PLL released before fuse-sleep
// freezes the bias state.
var dacGenerationScript = [...]struct {
	addr int
	data uint16
}{
	{dacRegClkCfg, 0x0800},  // data clock from the LVDS receiver
	{dacRegConfig0, 0x019c}, // 2x interpolation, FIFO enabled
	{dacRegConfig1, 0x040e}, // dual-channel data routing, offset binary off
	{dacRegConfig3, 0xa000}, // coarse gain to nominal full scale
	{dacRegMask0, 0x0000},   // unmask clock and FIFO alarms
	{dacRegMask1, 0xfffc},   // mask the unused alarm outputs
	{dacRegQMCOffA, 0x0000}, // QMC offsets cleared
	{dacRegFIFOOff, 0x8000}, // FIFO write pointer centered
	{dacRegPLL1, 0x0420},    // PLL dividers for the LVDS data rate
	{dacRegPLL0, 0x0400},    // PLL out of sleep
	{dacRegIOTest, 0x0000},  // IO test idle
	{dacRegAlarmA, 0x0000},  // clear latched alarms
	{dacRegSleep, 0x0000},   // all blocks awake
	{dacRegFuse, 0x0002},    // fuse-sleep: hold bias trim
	{dacRegConfig2, 0x0080}, // keep 4-wire SIF through fuse-sleep
}
