package commands

var helpCommand = CommandDefinition{
	Name:    "help",
	Aliases: []string{"help", "?"},
	Patterns: []CommandPattern{
		{Syntax: "help {command}", HelpMessage: "explain a command"},
		{Syntax: "help", HelpMessage: "list every command"},
	},
}

var lookCommand = CommandDefinition{
	Name:    "look",
	Aliases: []string{"look", "l", "examine", "x"},
	Patterns: []CommandPattern{
		{Syntax: "look at {target...}", HelpMessage: "inspect something"},
		{Syntax: "look {target...}", HelpMessage: "inspect something"},
		{Syntax: "look", HelpMessage: "see what is around"},
	},
}

var equipCommand = CommandDefinition{
	Name:    "equip",
	Aliases: []string{"equip", "grab", "hold", "use"},
	Patterns: []CommandPattern{
		{Syntax: "equip {target...}", HelpMessage: "pick up a tool and fire it", NoMatchMessage: "Equip what?"},
	},
}

var throwCommand = CommandDefinition{
	Name:    "throw",
	Aliases: []string{"throw", "t", "toss"},
	Patterns: []CommandPattern{
		{Syntax: "throw at {target...}", HelpMessage: "throw your tool at something"},
		{Syntax: "throw {target...}", HelpMessage: "throw your tool at something", NoMatchMessage: "Throw at what?"},
	},
}

var dropCommand = CommandDefinition{
	Name:    "drop",
	Aliases: []string{"drop", "release"},
	Patterns: []CommandPattern{
		{Syntax: "drop", HelpMessage: "let go of your tool"},
	},
}
