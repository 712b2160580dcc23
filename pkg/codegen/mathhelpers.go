package codegen

const helperHead = "function " + FunctionNamePlaceholder

var isPrimeHelper = []string{
	helperHead + "(n) {",
	"  // https://en.wikipedia.org/wiki/Primality_test#Naive_methods",
	"  if (n == 2 || n == 3) {",
	"    return true;",
	"  }",
	"  // False if n is NaN, negative, is 1, or not whole.",
	"  // And false if n is divisible by 2 or 3.",
	"  if (isNaN(n) || n <= 1 || n % 1 != 0 || n % 2 == 0 || n % 3 == 0) {",
	"    return false;",
	"  }",
	"  // Check all the numbers of form 6k +/- 1, up to sqrt(n).",
	"  for (var x = 6; x <= Math.sqrt(n) + 1; x += 6) {",
	"    if (n % (x - 1) == 0 || n % (x + 1) == 0) {",
	"      return false;",
	"    }",
	"  }",
	"  return true;",
	"}",
}

var meanHelper = []string{
	helperHead + "(myList) {",
	"  return myList.reduce(function(x, y) {return x + y;}) / myList.length;",
	"}",
}

var medianHelper = []string{
	helperHead + "(myList) {",
	"  var localList = myList.filter(function (x) {return typeof x == 'number';});",
	"  if (!localList.length) return null;",
	"  localList.sort(function(a, b) {return b - a;});",
	"  if (localList.length % 2 == 0) {",
	"    return (localList[localList.length / 2 - 1] + localList[localList.length / 2]) / 2;",
	"  } else {",
	"    return localList[(localList.length - 1) / 2];",
	"  }",
	"}",
}

var modesHelper = []string{
	helperHead + "(values) {",
	"  var modes = [];",
	"  var counts = [];",
	"  var maxCount = 0;",
	"  for (var i = 0; i < values.length; i++) {",
	"    var value = values[i];",
	"    var found = false;",
	"    var thisCount;",
	"    for (var j = 0; j < counts.length; j++) {",
	"      if (counts[j][0] === value) {",
	"        thisCount = ++counts[j][1];",
	"        found = true;",
	"        break;",
	"      }",
	"    }",
	"    if (!found) {",
	"      counts.push([value, 1]);",
	"      thisCount = 1;",
	"    }",
	"    maxCount = Math.max(thisCount, maxCount);",
	"  }",
	"  for (var j = 0; j < counts.length; j++) {",
	"    if (counts[j][1] == maxCount) {",
	"        modes.push(counts[j][0]);",
	"    }",
	"  }",
	"  return modes;",
	"}",
}

var stdDevHelper = []string{
	helperHead + "(numbers) {",
	"  var n = numbers.length;",
	"  if (!n) return null;",
	"  var mean = numbers.reduce(function(x, y) {return x + y;}) / n;",
	"  var variance = 0;",
	"  for (var j = 0; j < n; j++) {",
	"    variance += Math.pow(numbers[j] - mean, 2);",
	"  }",
	"  variance = variance / n;",
	"  return Math.sqrt(variance);",
	"}",
}

var randomListHelper = []string{
	helperHead + "(list) {",
	"  var x = Math.floor(Math.random() * list.length);",
	"  return list[x];",
	"}",
}

var randomIntHelper = []string{
	helperHead + "(a, b) {",
	"  if (a > b) {",
	"    // Swap a and b to ensure a is smaller.",
	"    var c = a;",
	"    a = b;",
	"    b = c;",
	"  }",
	"  return Math.floor(Math.random() * (b - a + 1) + a);",
	"}",
}
