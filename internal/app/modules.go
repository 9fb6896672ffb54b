package app

import (
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/modules/conditional"
	"github.com/vk/arcanebooks/modules/message"
	"github.com/vk/arcanebooks/modules/potion"
	"github.com/vk/arcanebooks/modules/sense"
	"github.com/vk/arcanebooks/modules/terrain"
	"github.com/vk/arcanebooks/modules/vitals"
)

// coreModules is the definitive list of all modules that are compiled into
// the arcanebooks binary.
var coreModules = []definition.Module{
	&conditional.Module{},
	&vitals.Module{},
	&terrain.Module{},
	&sense.Module{},
	&potion.Module{},
	&message.Module{},
}
