// Package builtins holds the documentation of the BuiltIn library, which every
// suite imports implicitly. It is used when no BuiltIn libspec was generated.
package builtins

import (
	"slices"
	"strings"
	"sync"

	"github.com/CWBudde/go-robot-lsp/internal/libspec"
)

// LibraryName is the name the BuiltIn library is imported under.
const LibraryName = "BuiltIn"

type keyword struct {
	args []string
	doc  string
}

// Library returns the compiled-in BuiltIn documentation. The result is shared
// and must not be modified.
var Library = sync.OnceValue(func() *libspec.LibraryDoc {
	doc := &libspec.LibraryDoc{
		Name:      LibraryName,
		Doc:       "An always available standard library with often needed keywords.",
		Type:      "LIBRARY",
		Scope:     "GLOBAL",
		DocFormat: "ROBOT",
	}

	names := make([]string, 0, len(builtinKeywords))
	for name := range builtinKeywords {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		kw := builtinKeywords[name]
		doc.Keywords = append(doc.Keywords, libspec.KeywordDoc{
			Name:     name,
			Args:     libspec.ParseArguments(kw.args),
			Doc:      kw.doc,
			ShortDoc: shortDoc(kw.doc),
		})
	}
	return doc
})

// GetBuiltinKeyword returns the documentation of a BuiltIn keyword if it
// exists. Names are compared exactly.
func GetBuiltinKeyword(name string) *libspec.KeywordDoc {
	lib := Library()
	i, found := slices.BinarySearchFunc(lib.Keywords, name, func(kw libspec.KeywordDoc, target string) int {
		return strings.Compare(kw.Name, target)
	})
	if !found {
		return nil
	}
	return &lib.Keywords[i]
}

func shortDoc(doc string) string {
	first, _, _ := strings.Cut(doc, "\n")
	return first
}

// builtinKeywords contains the keywords of the BuiltIn library
var builtinKeywords = map[string]keyword{
	// Logging
	"Log": {
		args: []string{"message", "level=INFO", "html=False", "console=False", "repr=DEPRECATED", "formatter=str"},
		doc:  "Logs the given message with the given level.",
	},
	"Log Many": {
		args: []string{"*messages"},
		doc:  "Logs the given messages as separate entries using the INFO level.",
	},
	"Log To Console": {
		args: []string{"message", "stream=STDOUT", "no_newline=False", "format="},
		doc:  "Logs the given message to the console.",
	},
	"Log Variables": {
		args: []string{"level=INFO"},
		doc:  "Logs all variables in the current scope with given log level.",
	},
	"Comment": {
		args: []string{"*messages"},
		doc:  "Displays the given messages in the log file as keyword arguments.\nThis keyword does nothing with the arguments it receives.",
	},
	"No Operation": {
		doc: "Does absolutely nothing.",
	},
	"Set Log Level": {
		args: []string{"level"},
		doc:  "Sets the log threshold to the specified level and returns the old level.",
	},

	// Verification
	"Should Be Equal": {
		args: []string{"first", "second", "msg=None", "values=True", "ignore_case=False", "formatter=str", "strip_spaces=False", "collapse_spaces=False"},
		doc:  "Fails if the given objects are unequal.",
	},
	"Should Not Be Equal": {
		args: []string{"first", "second", "msg=None", "values=True", "ignore_case=False", "strip_spaces=False", "collapse_spaces=False"},
		doc:  "Fails if the given objects are equal.",
	},
	"Should Be Equal As Integers": {
		args: []string{"first", "second", "msg=None", "values=True", "base=None"},
		doc:  "Fails if objects are unequal after converting them to integers.",
	},
	"Should Be Equal As Numbers": {
		args: []string{"first", "second", "msg=None", "values=True", "precision=6"},
		doc:  "Fails if objects are unequal after converting them to real numbers.",
	},
	"Should Be Equal As Strings": {
		args: []string{"first", "second", "msg=None", "values=True", "ignore_case=False", "strip_spaces=False", "formatter=str", "collapse_spaces=False"},
		doc:  "Fails if objects are unequal after converting them to strings.",
	},
	"Should Be True": {
		args: []string{"condition", "msg=None"},
		doc:  "Fails if the given condition is not true.",
	},
	"Should Not Be True": {
		args: []string{"condition", "msg=None"},
		doc:  "Fails if the given condition is true.",
	},
	"Should Be Empty": {
		args: []string{"item", "msg=None"},
		doc:  "Verifies that the given item is empty.",
	},
	"Should Not Be Empty": {
		args: []string{"item", "msg=None"},
		doc:  "Verifies that the given item is not empty.",
	},
	"Should Contain": {
		args: []string{"container", "item", "msg=None", "values=True", "ignore_case=False", "strip_spaces=False", "collapse_spaces=False"},
		doc:  "Fails if container does not contain item one or more times.",
	},
	"Should Not Contain": {
		args: []string{"container", "item", "msg=None", "values=True", "ignore_case=False", "strip_spaces=False", "collapse_spaces=False"},
		doc:  "Fails if container contains item one or more times.",
	},
	"Should Match": {
		args: []string{"string", "pattern", "msg=None", "values=True", "ignore_case=False"},
		doc:  "Fails if the given string does not match the given glob pattern.",
	},
	"Should Match Regexp": {
		args: []string{"string", "pattern", "msg=None", "values=True", "flags=None"},
		doc:  "Fails if string does not match pattern as a regular expression.",
	},
	"Length Should Be": {
		args: []string{"item", "length", "msg=None"},
		doc:  "Verifies that the length of the given item is correct.",
	},
	"Fail": {
		args: []string{"msg=None", "*tags"},
		doc:  "Fails the test with the given message and optionally alters its tags.",
	},
	"Fatal Error": {
		args: []string{"msg=None"},
		doc:  "Stops the whole test execution.",
	},

	// Conversion
	"Convert To Integer": {
		args: []string{"item", "base=None"},
		doc:  "Converts the given item to an integer number.",
	},
	"Convert To Number": {
		args: []string{"item", "precision=None"},
		doc:  "Converts the given item to a floating point number.",
	},
	"Convert To String": {
		args: []string{"item"},
		doc:  "Converts the given item to a Unicode string.",
	},
	"Convert To Boolean": {
		args: []string{"item"},
		doc:  "Converts the given item to Boolean true or false.",
	},
	"Create List": {
		args: []string{"*items"},
		doc:  "Returns a list containing given items.",
	},
	"Create Dictionary": {
		args: []string{"*items", "**kwargs"},
		doc:  "Creates and returns a dictionary based on the given items.",
	},
	"Get Length": {
		args: []string{"item"},
		doc:  "Returns and logs the length of the given item as an integer.",
	},
	"Catenate": {
		args: []string{"*items"},
		doc:  "Catenates the given items together and returns the resulted string.",
	},
	"Evaluate": {
		args: []string{"expression", "modules=None", "namespace=None"},
		doc:  "Evaluates the given expression in Python and returns the result.",
	},
	"Get Count": {
		args: []string{"container", "item"},
		doc:  "Returns and logs how many times item is found from container.",
	},
	"Get Time": {
		args: []string{"format=timestamp", "time_=NOW"},
		doc:  "Returns the given time in the requested format.",
	},

	// Variables
	"Set Variable": {
		args: []string{"*values"},
		doc:  "Returns the given values which can then be assigned to a variables.",
	},
	"Set Variable If": {
		args: []string{"condition", "*values"},
		doc:  "Sets variable based on the given condition.",
	},
	"Set Test Variable": {
		args: []string{"name", "*values"},
		doc:  "Makes a variable available everywhere within the scope of the current test.",
	},
	"Set Suite Variable": {
		args: []string{"name", "*values", "children=False"},
		doc:  "Makes a variable available everywhere within the scope of the current suite.",
	},
	"Set Global Variable": {
		args: []string{"name", "*values"},
		doc:  "Makes a variable available globally in all tests and suites.",
	},
	"Variable Should Exist": {
		args: []string{"name", "msg=None"},
		doc:  "Fails unless the given variable exists within the current scope.",
	},
	"Get Variable Value": {
		args: []string{"name", "default=None"},
		doc:  "Returns variable value or default if the variable does not exist.",
	},

	// Control flow
	"Run Keyword": {
		args: []string{"name", "*args"},
		doc:  "Executes the given keyword with the given arguments.",
	},
	"Run Keywords": {
		args: []string{"*keywords"},
		doc:  "Executes all the given keywords in a sequence.",
	},
	"Run Keyword If": {
		args: []string{"condition", "name", "*args"},
		doc:  "Runs the given keyword with the given arguments, if condition is true.",
	},
	"Run Keyword Unless": {
		args: []string{"condition", "name", "*args"},
		doc:  "Runs the given keyword with the given arguments if condition is false.",
	},
	"Run Keyword And Return Status": {
		args: []string{"name", "*args"},
		doc:  "Runs the given keyword with given arguments and returns the status as a Boolean value.",
	},
	"Run Keyword And Ignore Error": {
		args: []string{"name", "*args"},
		doc:  "Runs the given keyword with the given arguments and ignores possible error.",
	},
	"Run Keyword And Expect Error": {
		args: []string{"expected_error", "name", "*args"},
		doc:  "Runs the keyword and checks that the expected error occurred.",
	},
	"Run Keyword If Test Failed": {
		args: []string{"name", "*args"},
		doc:  "Runs the given keyword with the given arguments, if the test failed.",
	},
	"Run Keyword If All Tests Passed": {
		args: []string{"name", "*args"},
		doc:  "Runs the given keyword with the given arguments, if all tests passed.",
	},
	"Wait Until Keyword Succeeds": {
		args: []string{"retry", "retry_interval", "name", "*args"},
		doc:  "Runs the specified keyword and retries if it fails.",
	},
	"Repeat Keyword": {
		args: []string{"repeat", "name", "*args"},
		doc:  "Executes the specified keyword multiple times.",
	},
	"Return From Keyword": {
		args: []string{"*return_values"},
		doc:  "Returns from the enclosing user keyword.",
	},
	"Return From Keyword If": {
		args: []string{"condition", "*return_values"},
		doc:  "Returns from the enclosing user keyword if condition is true.",
	},
	"Exit For Loop": {
		doc: "Stops executing the enclosing FOR loop.",
	},
	"Exit For Loop If": {
		args: []string{"condition"},
		doc:  "Stops executing the enclosing FOR loop if the condition is true.",
	},
	"Continue For Loop": {
		doc: "Skips the current FOR loop iteration and continues from the next.",
	},
	"Continue For Loop If": {
		args: []string{"condition"},
		doc:  "Skips the current FOR loop iteration if the condition is true.",
	},
	"Pass Execution": {
		args: []string{"message", "*tags"},
		doc:  "Marks the test or suite as passed and stops executing it.",
	},
	"Skip": {
		args: []string{"msg=Skipped with Skip keyword."},
		doc:  "Skips the rest of the current test.",
	},
	"Sleep": {
		args: []string{"time_", "reason=None"},
		doc:  "Pauses the test executed for the given time.",
	},

	// Test and suite state
	"Set Tags": {
		args: []string{"*tags"},
		doc:  "Adds given tags for the current test or all tests in a suite.",
	},
	"Remove Tags": {
		args: []string{"*tags"},
		doc:  "Removes given tags from the current test or all tests in a suite.",
	},
	"Set Test Documentation": {
		args: []string{"doc", "append=False"},
		doc:  "Sets documentation for the current test case.",
	},
	"Set Suite Metadata": {
		args: []string{"name", "value", "append=False", "top=False"},
		doc:  "Sets metadata for the current suite.",
	},
	"Import Library": {
		args: []string{"name", "*args"},
		doc:  "Imports a library with the given name and optional arguments.",
	},
	"Import Resource": {
		args: []string{"path"},
		doc:  "Imports a resource file with the given path.",
	},
	"Import Variables": {
		args: []string{"path", "*args"},
		doc:  "Imports a variable file with the given path and optional arguments.",
	},
	"Keyword Should Exist": {
		args: []string{"name", "msg=None"},
		doc:  "Fails unless the given keyword exists in the current scope.",
	},
}
