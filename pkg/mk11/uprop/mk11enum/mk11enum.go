// Package mk11enum holds the closed per-field enum tables EnumProperty
// rendering consults (spec.md §4.8, S5). It is grounded directly on
// mk_utils/nrs/games/mk11/enums.py's enumMaps dict and the IntEnum
// classes it references: each Variants table here maps an enum's ordinal
// value to its variant name, and ByFieldName is keyed the same way as
// that dict. EPixelFormat is
// deliberately absent — Texture2D payload interpretation is out of
// core scope (spec.md §1 Deliberately out of scope).
package mk11enum

import "strconv"

// Variants is a closed enum: ordinal value → variant name, plus the
// enum's own name for EnumProperty's "EnumName::VariantName" rendering.
type Variants struct {
	EnumName string
	ByValue  map[uint64]string
}

func variants(enumName string, pairs ...struct {
	Value uint64
	Name  string
}) Variants {
	m := make(map[uint64]string, len(pairs))
	for _, p := range pairs {
		m[p.Value] = p.Name
	}
	return Variants{EnumName: enumName, ByValue: m}
}

func pair(v uint64, n string) struct {
	Value uint64
	Name  string
} {
	return struct {
		Value uint64
		Name  string
	}{v, n}
}

var mk11UnlockableType = variants("MK11UnlockableType",
	pair(0x0, "kUnlockNone"), pair(0x1, "kUnlockGeneral"), pair(0x2, "kUnlockBackground"),
	pair(0x3, "kUnlockCharacter"), pair(0x4, "kUnlockPlayerBadgeIcon"), pair(0x5, "kUnlockPlayerBadgeBgnd"),
	pair(0x6, "kUnlockModifier"), pair(0x7, "kUnlockAOC"), pair(0x8, "kUnlockInventoryItem"),
	pair(0x9, "kUnlockLoadoutSlot"), pair(0xA, "kUnlockInventorySpace"), pair(0xB, "kUnlockLootChest"),
	pair(0xC, "kUnlockEmoji"), pair(0xD, "kUnlockKollection"), pair(0xE, "kUnlockKrypt"),
	pair(0xF, "kUnlockAnnouncer"),
)

var eItemRarityType = variants("EItemRarityType",
	pair(0x00, "NONE"), pair(0x01, "Rarity1"), pair(0x02, "Rarity2"), pair(0x03, "Rarity3"),
	pair(0x04, "Rarity4"), pair(0x05, "Max"), pair(0x06, "Normal"), pair(0x07, "Mortal"),
	pair(0x08, "Mythic"), pair(0x09, "Elder"),
)

var eInventoryItemType = variants("EInventoryItemType",
	pair(0x00, "Instanced"), pair(0x01, "Stackable"), pair(0x02, "Unlockable"),
)

var eKollectionCategoryType = variants("EKollectionCategoryType",
	pair(0x00, "NONE"), pair(0x01, "Characters"), pair(0x02, "Environments"), pair(0x03, "Story"),
	pair(0x04, "Endings"), pair(0x05, "Music"), pair(0x06, "FanArt"), pair(0x07, "Recipes"),
	pair(0x08, "Max"),
)

var eItemUnlockableType = variants("EItemUnlockableType",
	pair(0x00, "NONE"), pair(0x01, "AIBattlesLootPool"), pair(0x02, "CharacterPortals"),
	pair(0x03, "CharacterTraining"), pair(0x04, "ErmacBodyLootTable"), pair(0x05, "Forge"),
	pair(0x06, "KenshiChestLootTable"), pair(0x07, "KollectorStore"), pair(0x08, "KombatLeague"),
	pair(0x09, "KronikaChestLootTable"), pair(0x0A, "Krypt"), pair(0x0B, "KryptNormalChests"),
	pair(0x0C, "NormalChestLootTable"), pair(0x0D, "PremierAndBossPortals"), pair(0x0E, "RAT"),
	pair(0x0F, "Story"), pair(0x10, "SandsOfTime"), pair(0x11, "TOTTutorial"),
	pair(0x12, "TowersRewards"), pair(0x13, "KryptLootTables_ErmacChests"),
	pair(0x14, "KryptLootTables_HeadSpikes"), pair(0x15, "KryptLootTables_KenshiChests"),
	pair(0x16, "KryptLootTables_KollectorStore"), pair(0x17, "KryptLootTables_KronikaChests"),
	pair(0x18, "KryptLootTables_NetherForge"), pair(0x19, "KryptLootTables_NormalChests"),
	pair(0x1A, "KryptLootTables_Restock1"), pair(0x1B, "KryptLootTables_Restock2"),
	pair(0x1C, "KryptLootTables_Restock3"), pair(0x1D, "KryptLootTables_ScorpionChests"),
	pair(0x1E, "KryptLootTables_ShaoKahnChests"), pair(0x1F, "KryptLootTables_Shrine"),
	pair(0x20, "KryptLootTables_ThroneRoom"), pair(0x21, "PortalHourly"),
	pair(0x22, "PortalAssist"), pair(0x23, "PortalDaily"), pair(0x24, "PortalKey"),
	pair(0x25, "PortalTeam"),
)

var eAttributeModeRestrictionType = variants("EAttributeModeRestrictionType",
	pair(0x00, "Any"), pair(0x01, "Multiverse"), pair(0x02, "AI"), pair(0x03, "Online"),
)

var eAttributeParameterType = variants("EAttributeParameterType",
	pair(0x00, "String"), pair(0x01, "Int"), pair(0x02, "Float"), pair(0x03, "Percent"),
	pair(0x04, "Context_Character"), pair(0x05, "CharacterAttribute"),
)

var eItemMoveInfoBlockType = variants("EItemMoveInfoBlockType",
	pair(0x00, "NONE"), pair(0x01, "Low"), pair(0x02, "Med"), pair(0x03, "High"), pair(0x04, "Overhead"),
)

var eInventoryHideGroupType = variants("EInventoryHideGroupType",
	pair(0x00, "NONE"), pair(0x01, "Hidden"), pair(0x02, "HiddenGroup1"), pair(0x03, "HiddenGroup2"),
	pair(0x04, "HiddenGroup3"), pair(0x05, "HiddenGroup4"), pair(0x06, "HiddenGroup5"),
	pair(0x07, "HiddenGroup6"), pair(0x08, "HiddenGroup7"), pair(0x09, "HiddenGroup8"),
	pair(0x0A, "HiddenGroup9"), pair(0x0B, "HiddenGroup10"), pair(0x0C, "HiddenGroup11"),
	pair(0x0D, "HiddenGroup12"), pair(0x0E, "HiddenGroup13"), pair(0x0F, "HiddenGroup14"),
	pair(0x10, "HiddenGroup15"), pair(0x11, "HiddenGroup16"),
)

// ByFieldName mirrors enums.py's enumMaps: a tagged property's *field
// name* (not its class) selects which closed Variants table to consult.
// Some field names are genuinely ambiguous across classes upstream too
// ("mCategory", "Mode", "Type" are commented there as depending on the
// containing file); this table keeps the same single mapping the
// original does rather than inventing per-class disambiguation.
var ByFieldName = map[string]Variants{
	"mUnlockType":       mk11UnlockableType,
	"mRarity":           eItemRarityType,
	"Rarity":            eItemRarityType,
	"mType":             mk11UnlockableType,
	"mCategory":         eKollectionCategoryType,
	"InventoryItemType": eInventoryItemType,
	"UnlockableType":    eItemUnlockableType,
	"Mode":              eAttributeModeRestrictionType,
	"Type":              eAttributeParameterType,
	"MoveInfoBlockType": eItemMoveInfoBlockType,
	"HideGroup":         eInventoryHideGroupType,
}

// Lookup returns the Variants table registered for a property field
// name, if any.
func Lookup(fieldName string) (Variants, bool) {
	v, ok := ByFieldName[fieldName]
	return v, ok
}

// Render formats an enum value as "field_name::value" when no table is
// registered for fieldName, or "EnumName::VariantName" when it is
// (spec.md §4.8's EnumProperty behavior).
func Render(fieldName string, value uint64) string {
	if v, ok := Lookup(fieldName); ok {
		if name, ok := v.ByValue[value]; ok {
			return v.EnumName + "::" + name
		}
	}
	return fieldName + "::" + strconv.FormatUint(value, 10)
}
